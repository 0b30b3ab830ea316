package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"chessplatform/bots"
	"chessplatform/puzzles"
	"chessplatform/session"
	"chessplatform/storage"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.Open(storage.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	catalog, err := puzzles.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(store, catalog, nil, session.Options{Seed: 11})
	mux := http.NewServeMux()
	New(mgr, nil, bots.Medium).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// call sends body (nil for none) and decodes the JSON response into out
// when out is not nil. It returns the status code.
func call(t *testing.T, srv *httptest.Server, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestLiveGameFlow(t *testing.T) {
	srv := newServer(t)

	var st session.GameState
	if code := call(t, srv, "POST", "/api/live", map[string]string{"difficulty": "hard", "color": "white"}, &st); code != http.StatusCreated {
		t.Fatalf("start status = %d", code)
	}
	if st.Difficulty != "hard" || st.Turn != "white" {
		t.Fatalf("state = %+v", st)
	}

	var res session.MoveResult
	if code := call(t, srv, "POST", "/api/live/"+st.ID+"/move", map[string]string{"from": "e2", "to": "e4"}, &res); code != http.StatusOK {
		t.Fatalf("move status = %d", code)
	}
	if res.Move != "e4" || res.Reply == "" || len(res.State.Moves) != 2 {
		t.Errorf("move result = %+v", res)
	}

	var e errorResp
	if code := call(t, srv, "POST", "/api/live/"+st.ID+"/move", map[string]string{"move": "e4"}, &e); code != http.StatusUnprocessableEntity {
		t.Errorf("illegal move status = %d (%s)", code, e.Error)
	}

	if code := call(t, srv, "POST", "/api/live/"+st.ID+"/resign", nil, &st); code != http.StatusOK || !st.Over {
		t.Errorf("resign status = %d, state %+v", code, st)
	}
	if code := call(t, srv, "POST", "/api/live/"+st.ID+"/move", map[string]string{"move": "d4"}, &e); code != http.StatusConflict {
		t.Errorf("move after resign status = %d", code)
	}

	var view session.StatsView
	if code := call(t, srv, "GET", "/api/stats", nil, &view); code != http.StatusOK {
		t.Fatalf("stats status = %d", code)
	}
	if view.Losses != 1 || view.Rating != 1190 || view.Tier != "Class D" {
		t.Errorf("stats = %+v", view)
	}
}

func TestLiveGameDefaults(t *testing.T) {
	srv := newServer(t)
	var st session.GameState
	if code := call(t, srv, "POST", "/api/live", nil, &st); code != http.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if st.Difficulty != "medium" || st.PlayerColor != "white" {
		t.Errorf("state = %+v", st)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown difficulty", "POST", "/api/live", map[string]string{"difficulty": "extreme"}, http.StatusBadRequest},
		{"unknown colour", "POST", "/api/live", map[string]string{"color": "green"}, http.StatusBadRequest},
		{"unknown live game", "GET", "/api/live/nope", nil, http.StatusNotFound},
		{"unknown daily game", "GET", "/api/daily/nope", nil, http.StatusNotFound},
		{"delete unknown daily", "DELETE", "/api/daily/nope", nil, http.StatusNotFound},
		{"non numeric puzzle", "POST", "/api/puzzles/abc/attempt", nil, http.StatusBadRequest},
		{"unknown puzzle", "POST", "/api/puzzles/99/attempt", nil, http.StatusNotFound},
		{"bad level", "GET", "/api/puzzles?level=master", nil, http.StatusBadRequest},
		{"unknown attempt", "GET", "/api/attempts/nope/hint", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e errorResp
			if code := call(t, srv, tt.method, tt.path, tt.body, &e); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
			if e.Error == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	srv := newServer(t)
	resp, err := srv.Client().Post(srv.URL+"/api/live", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestDailyFlow(t *testing.T) {
	srv := newServer(t)
	var st session.GameState
	if code := call(t, srv, "POST", "/api/daily", nil, &st); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	var list []session.GameState
	if code := call(t, srv, "GET", "/api/daily", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list status = %d, %d games", code, len(list))
	}
	if code := call(t, srv, "DELETE", "/api/daily/"+st.ID, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
}

func TestPuzzleFlow(t *testing.T) {
	srv := newServer(t)

	var list []puzzles.Puzzle
	if code := call(t, srv, "GET", "/api/puzzles?level=intermediate", nil, &list); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(list) != 5 {
		t.Errorf("intermediate puzzles = %d, want 5", len(list))
	}

	var st session.AttemptState
	if code := call(t, srv, "POST", "/api/puzzles/1/attempt", nil, &st); code != http.StatusCreated {
		t.Fatalf("attempt status = %d", code)
	}

	var hint session.HintResult
	call(t, srv, "GET", "/api/attempts/"+st.ID+"/hint", nil, &hint)
	if hint.Hint != "Qxf7" || hint.HintsUsed != 1 {
		t.Errorf("hint = %+v", hint)
	}

	var res session.AttemptResult
	call(t, srv, "POST", "/api/attempts/"+st.ID+"/move", map[string]string{"move": "Qxe5+"}, &res)
	if res.Outcome != "rejected" || res.Reason != "wrong move" {
		t.Errorf("wrong move result = %+v", res)
	}
	call(t, srv, "POST", "/api/attempts/"+st.ID+"/move", map[string]string{"move": "Qxf7#"}, &res)
	if res.Outcome != "solved" {
		t.Errorf("solve result = %+v", res)
	}
	call(t, srv, "POST", "/api/attempts/"+st.ID+"/reset", nil, &st)
	if st.Cursor != 0 || st.HintsUsed != 1 {
		t.Errorf("reset state = %+v", st)
	}

	var view session.StatsView
	call(t, srv, "GET", "/api/stats", nil, &view)
	if view.PuzzlesSolved != 1 {
		t.Errorf("puzzles solved = %d", view.PuzzlesSolved)
	}
	if code := call(t, srv, "DELETE", "/api/stats", nil, nil); code != http.StatusNoContent {
		t.Errorf("reset stats status = %d", code)
	}
	call(t, srv, "GET", "/api/stats", nil, &view)
	if view.PuzzlesSolved != 0 {
		t.Errorf("puzzles solved after reset = %d", view.PuzzlesSolved)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := RequestLogger(zap.New(core), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/stats", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["bytes"] != int64(5) || fields["path"] != "/api/stats" {
		t.Errorf("fields = %v", fields)
	}
}
