// Package server exposes the session manager as a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"chessplatform/bots"
	"chessplatform/puzzles"
	"chessplatform/rules"
	"chessplatform/session"
)

type Handler struct {
	sessions *session.Manager
	logger   *zap.Logger
	// defaultDifficulty applies to live games started without one.
	defaultDifficulty bots.Difficulty
}

func New(sessions *session.Manager, logger *zap.Logger, defaultDifficulty bots.Difficulty) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, logger: logger, defaultDifficulty: defaultDifficulty}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/live", h.handleStartLive)
	mux.HandleFunc("GET /api/live/{id}", h.handleLiveState)
	mux.HandleFunc("POST /api/live/{id}/move", h.handleLiveMove)
	mux.HandleFunc("POST /api/live/{id}/resign", h.handleResign)

	mux.HandleFunc("GET /api/daily", h.handleListDaily)
	mux.HandleFunc("POST /api/daily", h.handleCreateDaily)
	mux.HandleFunc("GET /api/daily/{id}", h.handleDaily)
	mux.HandleFunc("POST /api/daily/{id}/move", h.handleDailyMove)
	mux.HandleFunc("DELETE /api/daily/{id}", h.handleDeleteDaily)

	mux.HandleFunc("GET /api/puzzles", h.handleListPuzzles)
	mux.HandleFunc("POST /api/puzzles/{id}/attempt", h.handleStartAttempt)
	mux.HandleFunc("GET /api/attempts/{id}", h.handleAttempt)
	mux.HandleFunc("POST /api/attempts/{id}/move", h.handleAttemptMove)
	mux.HandleFunc("POST /api/attempts/{id}/reset", h.handleResetAttempt)
	mux.HandleFunc("GET /api/attempts/{id}/hint", h.handleHint)

	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("DELETE /api/stats", h.handleResetStats)
}

// ---- Live ----

type startLiveReq struct {
	Difficulty string `json:"difficulty,omitempty"`
	Color      string `json:"color,omitempty"`
}

func (h *Handler) handleStartLive(w http.ResponseWriter, r *http.Request) {
	var req startLiveReq
	if !decode(w, r, &req) {
		return
	}
	d := h.defaultDifficulty
	if req.Difficulty != "" {
		var err error
		if d, err = bots.ParseDifficulty(req.Difficulty); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	colorName := req.Color
	if colorName == "" {
		colorName = "white"
	}
	color, err := rules.ParseColor(colorName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := h.sessions.StartLive(d, color)
	h.respond(w, r, http.StatusCreated, st, err)
}

func (h *Handler) handleLiveState(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.LiveState(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, st, err)
}

func (h *Handler) handleLiveMove(w http.ResponseWriter, r *http.Request) {
	var in session.MoveInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.sessions.PlayLive(r.PathValue("id"), in)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) handleResign(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Resign(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, st, err)
}

// ---- Daily ----

func (h *Handler) handleListDaily(w http.ResponseWriter, r *http.Request) {
	games, err := h.sessions.ListDaily()
	h.respond(w, r, http.StatusOK, games, err)
}

func (h *Handler) handleCreateDaily(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.CreateDaily()
	h.respond(w, r, http.StatusCreated, st, err)
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Daily(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, st, err)
}

func (h *Handler) handleDailyMove(w http.ResponseWriter, r *http.Request) {
	var in session.MoveInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.sessions.PlayDaily(r.PathValue("id"), in)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) handleDeleteDaily(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteDaily(r.PathValue("id")); err != nil {
		h.respond(w, r, 0, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Puzzles ----

func (h *Handler) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	level, err := puzzles.ParseLevel(r.URL.Query().Get("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Puzzles(level))
}

func (h *Handler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("puzzle id must be a number"))
		return
	}
	st, err := h.sessions.StartAttempt(id)
	h.respond(w, r, http.StatusCreated, st, err)
}

func (h *Handler) handleAttempt(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Attempt(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, st, err)
}

func (h *Handler) handleAttemptMove(w http.ResponseWriter, r *http.Request) {
	var in session.MoveInput
	if !decode(w, r, &in) {
		return
	}
	res, err := h.sessions.SubmitAttempt(r.PathValue("id"), in)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) handleResetAttempt(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.ResetAttempt(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, st, err)
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	hint, err := h.sessions.Hint(r.PathValue("id"))
	h.respond(w, r, http.StatusOK, hint, err)
}

// ---- Stats ----

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessions.Stats()
	h.respond(w, r, http.StatusOK, view, err)
}

func (h *Handler) handleResetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ResetStats(); err != nil {
		h.respond(w, r, 0, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

type errorResp struct {
	Error string `json:"error"`
}

// respond writes v with status, or the mapped error. Only unexpected errors
// are logged; client mistakes are visible in the request log.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err == nil {
		writeJSON(w, status, v)
		return
	}
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, code, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, bots.ErrUnknownDifficulty):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrGameOver),
		errors.Is(err, session.ErrNotYourTurn):
		return http.StatusConflict
	case errors.Is(err, rules.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// decode reads an optional JSON body. An empty body leaves v zeroed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON: "+err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResp{Error: err.Error()})
}

// statusWriter captures the status and bytes written for the request log.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// RequestLogger logs method, path, status, bytes and duration of each
// request.
func RequestLogger(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Int("bytes", sw.bytes),
			zap.Duration("dur", time.Since(start).Round(time.Millisecond)),
		)
	})
}
