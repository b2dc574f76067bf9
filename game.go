package cubetracker

import (
	"fmt"
	"strings"
	"sync"

	"github.com/corentings/chess/v2"
)

// GameTracker follows a chess game from detected cube moves.
// White pieces are cubes of WhiteColor, black ones BlackColor.
type GameTracker struct {
	WhiteColor, BlackColor string

	mu   sync.Mutex
	game *chess.Game
}

// NewGameTracker starts from the standard opening position.
func NewGameTracker(whiteColor, blackColor string) *GameTracker {
	return &GameTracker{
		WhiteColor: whiteColor,
		BlackColor: blackColor,
		game:       chess.NewGame(),
	}
}

// Reset starts over, from fen if given.
func (gt *GameTracker) Reset(fen string) error {
	game := chess.NewGame()
	if fen != "" {
		opt, err := chess.FEN(fen)
		if err != nil {
			return err
		}
		game = chess.NewGame(opt)
	}

	gt.mu.Lock()
	defer gt.mu.Unlock()
	gt.game = game
	return nil
}

// ApplyEvents finds the one legal move that changes exactly the squares the
// events touch and plays it. Castling and en passant show up as several
// events; a pawn reaching the last rank is promoted to a queen.
func (gt *GameTracker) ApplyEvents(events []MoveEvent) (string, error) {
	touched := map[string]bool{}
	for _, e := range events {
		for _, l := range []SquareLabel{e.From, e.To} {
			if !l.IsZero() {
				touched[l.Token()] = true
			}
		}
	}
	tokens := strings.Join(Tokens(events), ", ")
	if len(touched) == 0 {
		return "", fmt.Errorf("no squares changed: %w", ErrIllegalMove)
	}

	gt.mu.Lock()
	defer gt.mu.Unlock()

	before := gt.game.Position().Board().SquareMap()

	var candidates []chess.Move
	for _, m := range gt.game.ValidMoves() {
		if s := m.String(); len(s) == 5 && !strings.HasSuffix(s, "q") {
			continue
		}

		g := gt.game.Clone()
		if err := g.Move(&m, nil); err != nil {
			continue
		}
		if sameSquares(changedSquares(before, g.Position().Board().SquareMap()), touched) {
			candidates = append(candidates, m)
		}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("[%s] is not legal in %s: %w", tokens, gt.game.FEN(), ErrIllegalMove)
	case 1:
	default:
		return "", fmt.Errorf("%d legal moves match [%s]: %w", len(candidates), tokens, ErrIllegalMove)
	}

	m := candidates[0]
	if err := gt.game.Move(&m, nil); err != nil {
		return "", err
	}
	return m.String(), nil
}

// changedSquares lists squares whose occupying color differs.
func changedSquares(before, after map[chess.Square]chess.Piece) map[string]bool {
	colorAt := func(m map[chess.Square]chess.Piece, sq chess.Square) chess.Color {
		p, ok := m[sq]
		if !ok {
			return chess.NoColor
		}
		return p.Color()
	}

	out := map[string]bool{}
	for sq := chess.A1; sq <= chess.H8; sq++ {
		if colorAt(before, sq) != colorAt(after, sq) {
			out[sq.String()] = true
		}
	}
	return out
}

func sameSquares(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// FEN is the current position.
func (gt *GameTracker) FEN() string {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	return gt.game.FEN()
}

// Outcome is "*" while the game is running.
func (gt *GameTracker) Outcome() string {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	return string(gt.game.Outcome())
}

// Mismatches lists squares where the cubes seen disagree with the game's board.
func (gt *GameTracker) Mismatches(state BoardState) []string {
	gt.mu.Lock()
	board := gt.game.Position().Board()
	gt.mu.Unlock()

	var out []string
	for r := chess.Rank1; r <= chess.Rank8; r++ {
		for f := chess.FileA; f <= chess.FileH; f++ {
			sq := chess.NewSquare(f, r)
			label, err := ParseSquareLabel(sq.String(), DefaultGrid)
			if err != nil {
				continue
			}

			want := ""
			if p := board.Piece(sq); p != chess.NoPiece {
				want = gt.BlackColor
				if p.Color() == chess.White {
					want = gt.WhiteColor
				}
			}
			have := state[label].String()

			if want != have {
				if want == "" {
					want = "empty"
				}
				if have == "" {
					have = "empty"
				}
				out = append(out, fmt.Sprintf("%v: expected %s, saw %s", label, want, have))
			}
		}
	}
	return out
}
