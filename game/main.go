package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/notnil/chess"
	"go.uber.org/zap"

	"chessplatform/bots"
	"chessplatform/config"
	"chessplatform/puzzles"
	"chessplatform/rules"
	"chessplatform/session"
	"chessplatform/storage"
)

const (
	squareSize   = 80
	boardOffsetX = 0
	boardOffsetY = 60
	screenWidth  = squareSize * 8
	screenHeight = boardOffsetY + squareSize*8 + 40
	btnWidth     = 200
	btnHeight    = 60
)

var (
	lightSquare = color.RGBA{240, 217, 181, 255}
	darkSquare  = color.RGBA{181, 136, 99, 255}
	selectColor = color.RGBA{246, 246, 105, 160}
	textColor   = color.RGBA{230, 230, 230, 255}
	background  = color.RGBA{40, 40, 40, 255}
)

// computerReply carries the result of a computer move back to Update.
type computerReply struct {
	res session.MoveResult
	err error
}

type Game struct {
	sessions   *session.Manager
	sprites    *SpriteSet
	replyDelay time.Duration

	difficulty  bots.Difficulty
	playerColor chess.Color
	gameStarted bool

	sessionID string
	state     session.GameState
	pos       *chess.Position
	message   string

	selected     chess.Square
	dragging     chess.Piece
	dragX, dragY int

	botThinking bool
	replies     chan computerReply
}

func NewGame(sessions *session.Manager, difficulty bots.Difficulty, replyDelay time.Duration) *Game {
	return &Game{
		sessions:   sessions,
		sprites:    NewSpriteSet(squareSize),
		replyDelay: replyDelay,
		difficulty: difficulty,
		selected:   chess.NoSquare,
		dragging:   chess.NoPiece,
		replies:    make(chan computerReply, 1),
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyD) && !g.botThinking {
		g.difficulty = (g.difficulty + 1) % (bots.Hard + 1)
	}

	if !g.gameStarted {
		g.updateMenu()
		return nil
	}

	g.checkComputerReply()

	if g.state.Over {
		if inpututil.IsKeyJustPressed(ebiten.KeyN) {
			g.gameStarted = false
		}
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) && !g.botThinking {
		g.apply(g.sessions.Resign(g.sessionID))
		return nil
	}
	if g.botThinking || g.pos.Turn() != g.playerColor {
		return nil
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if sq, ok := g.squareAt(ebiten.CursorPosition()); ok {
			piece := g.pos.Board().Piece(sq)
			if piece != chess.NoPiece && piece.Color() == g.playerColor {
				g.selected = sq
				g.dragging = piece
			}
		}
	}
	if g.dragging != chess.NoPiece {
		g.dragX, g.dragY = ebiten.CursorPosition()
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && g.dragging != chess.NoPiece {
		if target, ok := g.squareAt(ebiten.CursorPosition()); ok && target != g.selected {
			g.playerMove(g.selected, target)
		}
		g.selected = chess.NoSquare
		g.dragging = chess.NoPiece
	}
	return nil
}

func (g *Game) updateMenu() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	x, y := ebiten.CursorPosition()
	btnY := screenHeight/2 + 40
	if y < btnY || y > btnY+btnHeight {
		return
	}
	switch {
	case x > screenWidth/2-btnWidth-20 && x < screenWidth/2-20:
		g.startGame(chess.White)
	case x > screenWidth/2+20 && x < screenWidth/2+20+btnWidth:
		g.startGame(chess.Black)
	}
}

func (g *Game) startGame(c chess.Color) {
	g.playerColor = c
	g.message = ""
	// Drop a reply from an abandoned game.
	select {
	case <-g.replies:
	default:
	}
	g.botThinking = false

	st, err := g.sessions.StartLive(g.difficulty, c)
	if err != nil {
		log.Printf("Warning: failed to start game: %v", err)
		return
	}
	g.sessionID = st.ID
	g.setState(st)
	g.gameStarted = true
}

func (g *Game) playerMove(from, to chess.Square) {
	res, err := g.sessions.PlayerMove(g.sessionID, session.MoveInput{From: from.String(), To: to.String()})
	if err != nil {
		g.message = err.Error()
		return
	}
	g.message = ""
	g.setState(res.State)
	if res.State.Over {
		return
	}

	g.botThinking = true
	id, delay := g.sessionID, g.replyDelay
	go func() {
		time.Sleep(delay)
		res, err := g.sessions.ComputerMove(id)
		g.replies <- computerReply{res: res, err: err}
	}()
}

func (g *Game) checkComputerReply() {
	if !g.botThinking {
		return
	}
	select {
	case r := <-g.replies:
		g.botThinking = false
		g.apply(r.res.State, r.err)
	default:
	}
}

func (g *Game) apply(st session.GameState, err error) {
	if err != nil {
		g.message = err.Error()
		return
	}
	g.setState(st)
}

func (g *Game) setState(st session.GameState) {
	pos, err := rules.ParseFEN(st.FEN)
	if err != nil {
		log.Printf("Warning: bad position from session: %v", err)
		return
	}
	g.state, g.pos = st, pos
}

// squareAt maps screen coordinates to a board square, honouring the flipped
// board when the player has Black.
func (g *Game) squareAt(x, y int) (chess.Square, bool) {
	x -= boardOffsetX
	y -= boardOffsetY
	if x < 0 || x >= squareSize*8 || y < 0 || y >= squareSize*8 {
		return chess.NoSquare, false
	}
	file, rank := x/squareSize, 7-y/squareSize
	if g.playerColor == chess.Black {
		file, rank = 7-file, 7-rank
	}
	return chess.NewSquare(chess.File(file), chess.Rank(rank)), true
}

// squareOrigin is the top-left pixel of sq on screen.
func (g *Game) squareOrigin(sq chess.Square) (float64, float64) {
	file, rank := int(sq.File()), int(sq.Rank())
	if g.playerColor == chess.Black {
		file, rank = 7-file, 7-rank
	}
	return float64(boardOffsetX + file*squareSize), float64(boardOffsetY + (7-rank)*squareSize)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	if !g.gameStarted {
		g.drawMenu(screen)
		return
	}

	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			sq := chess.NewSquare(chess.File(file), chess.Rank(rank))
			x, y := g.squareOrigin(sq)
			clr := darkSquare
			if (file+rank)%2 == 1 {
				clr = lightSquare
			}
			vector.DrawFilledRect(screen, float32(x), float32(y), squareSize, squareSize, clr, false)
			if sq == g.selected {
				vector.DrawFilledRect(screen, float32(x), float32(y), squareSize, squareSize, selectColor, false)
			}
			piece := g.pos.Board().Piece(sq)
			if piece != chess.NoPiece && !(g.dragging != chess.NoPiece && sq == g.selected) {
				g.sprites.DrawAt(screen, piece, x, y)
			}
		}
	}

	if g.dragging != chess.NoPiece {
		g.sprites.DrawAt(screen, g.dragging, float64(g.dragX)-squareSize/2, float64(g.dragY)-squareSize/2)
	}

	drawText(screen, g.statusLine(), regularFace, 12, 20, textColor)
	drawText(screen, fmt.Sprintf("%s | D: difficulty (%s next game) | R: resign", g.state.Opponent, g.difficulty), regularFace, 12, float64(boardOffsetY+squareSize*8+10), textColor)
}

func (g *Game) statusLine() string {
	switch {
	case g.message != "":
		return g.message
	case g.state.Over:
		return g.state.Status + "  (N: new game)"
	case g.botThinking:
		return "Computer is thinking..."
	case g.state.Status != "":
		return g.state.Status + " Your move"
	case g.pos.Turn() == g.playerColor:
		return "Your move"
	}
	return "Computer to move"
}

func (g *Game) drawMenu(screen *ebiten.Image) {
	drawTextCentered(screen, "Chess Platform", boldFace, screenWidth/2, screenHeight/2-80, textColor)
	drawTextCentered(screen, fmt.Sprintf("Difficulty: %s (press D to change)", g.difficulty), regularFace, screenWidth/2, screenHeight/2-20, textColor)

	btnY := float32(screenHeight/2 + 40)
	vector.DrawFilledRect(screen, screenWidth/2-btnWidth-20, btnY, btnWidth, btnHeight, color.RGBA{200, 200, 200, 255}, false)
	drawTextCentered(screen, "Play White", regularFace, screenWidth/2-btnWidth/2-20, float64(btnY)+btnHeight/2, color.Black)
	vector.DrawFilledRect(screen, screenWidth/2+20, btnY, btnWidth, btnHeight, color.RGBA{50, 50, 50, 255}, false)
	drawTextCentered(screen, "Play Black", regularFace, screenWidth/2+btnWidth/2+20, float64(btnY)+btnHeight/2, color.White)

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("TPS %0.f", ebiten.ActualTPS()), 4, screenHeight-16)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	var flags config.Flags
	flags.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	store, err := storage.Open(storage.Options{Dir: cfg.DataDir, Rules: cfg.Rating})
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()
	catalog, err := puzzles.DefaultCatalog()
	if err != nil {
		log.Fatal(err)
	}

	mgr := session.NewManager(store, catalog, logger.Named("desktop"), session.Options{Seed: cfg.Seed})
	game := NewGame(mgr, cfg.Live.DefaultDifficulty, cfg.Live.ReplyDelay)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Chess Platform")
	if err := ebiten.RunGame(game); err != nil {
		logger.Error("game loop", zap.Error(err))
	}
}
