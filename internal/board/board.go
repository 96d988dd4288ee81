// Package board is a small, self-contained chess rules engine: FEN/EPD
// parsing, legal move generation and make/unmake. It plays the role the
// exploring search treats as an opaque position type -- nothing here is
// tuned for engine search speed, only for correctness, since the engine's
// own work happens on chessdb.cn's servers rather than on local search.
package board

import (
	"fmt"
	"strconv"
	"strings"

	. "github.com/cdbsearch/cdbsearch/internal/types"
)

// Board is a mutable chess position. The zero value is not valid; use
// NewBoard or ParseFEN.
type Board struct {
	squares    [64]Piece
	turn       Color
	castling   CastlingRights
	epSquare   Square
	halfmove   int
	fullmove   int
	history    []undoEntry
	repetition map[string]int
}

type undoEntry struct {
	move       Move
	captured   Piece
	castling   CastlingRights
	epSquare   Square
	halfmove   int
	epdBefore  string
	movedPiece Piece
}

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// NewBoard returns the standard starting position.
func NewBoard() *Board {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		panic("board: invalid built-in start FEN: " + err.Error())
	}
	return b
}

// ParseFEN builds a Board from a FEN (or EPD, which omits the last two
// fields) string.
func ParseFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("board: FEN needs at least 4 fields, got %d", len(fields))
	}
	b := &Board{repetition: make(map[string]int)}
	for i := range b.squares {
		b.squares[i] = PieceNone
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("board: FEN board field needs 8 ranks, got %d", len(ranks))
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, r := range rankStr {
			if r >= '1' && r <= '8' {
				file += int(r - '0')
				continue
			}
			if file > 7 {
				return nil, fmt.Errorf("board: rank %d overflows files", rank+1)
			}
			color := White
			letter := byte(r)
			if r >= 'a' && r <= 'z' {
				color = Black
				letter = byte(r) - 'a' + 'A'
			}
			pt, ok := PieceTypeFromLetter(strings.ToLower(string(letter))[0])
			if !ok {
				return nil, fmt.Errorf("board: unknown piece letter %q", r)
			}
			b.squares[NewSquare(file, rank)] = MakePiece(color, pt)
			file++
		}
	}

	switch fields[1] {
	case "w":
		b.turn = White
	case "b":
		b.turn = Black
	default:
		return nil, fmt.Errorf("board: bad side to move %q", fields[1])
	}

	b.castling = CastlingNone
	if fields[2] != "-" {
		for _, r := range fields[2] {
			switch r {
			case 'K':
				b.castling |= CastlingWhiteOO
			case 'Q':
				b.castling |= CastlingWhiteOOO
			case 'k':
				b.castling |= CastlingBlackOO
			case 'q':
				b.castling |= CastlingBlackOOO
			default:
				return nil, fmt.Errorf("board: bad castling letter %q", r)
			}
		}
	}

	b.epSquare = SqNone
	if fields[3] != "-" {
		sq, ok := SquareFromString(fields[3])
		if !ok {
			return nil, fmt.Errorf("board: bad en passant square %q", fields[3])
		}
		b.epSquare = sq
	}

	b.halfmove = 0
	b.fullmove = 1
	if len(fields) >= 5 {
		if v, err := strconv.Atoi(fields[4]); err == nil {
			b.halfmove = v
		}
	}
	if len(fields) >= 6 {
		if v, err := strconv.Atoi(fields[5]); err == nil {
			b.fullmove = v
		}
	}

	b.repetition[b.Epd()] = 1
	return b, nil
}

// FEN renders the full FEN string, including the move counters.
func (b *Board) FEN() string {
	return fmt.Sprintf("%s %d %d", b.Epd(), b.halfmove, b.fullmove)
}

// Epd renders the position without the halfmove/fullmove counters --
// the form used as a transposition table and CDB cache key.
func (b *Board) Epd() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[NewSquare(file, rank)]
			if p == PieceNone {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	sb.WriteString(b.turn.String())
	sb.WriteByte(' ')
	sb.WriteString(b.castling.String())
	sb.WriteByte(' ')
	if b.epSquare == SqNone {
		sb.WriteByte('-')
	} else {
		sb.WriteString(b.epSquare.String())
	}
	return sb.String()
}

// Copy returns an independent deep copy of the board.
func (b *Board) Copy() *Board {
	nb := &Board{
		squares:  b.squares,
		turn:     b.turn,
		castling: b.castling,
		epSquare: b.epSquare,
		halfmove: b.halfmove,
		fullmove: b.fullmove,
	}
	nb.history = make([]undoEntry, len(b.history))
	copy(nb.history, b.history)
	nb.repetition = make(map[string]int, len(b.repetition))
	for k, v := range b.repetition {
		nb.repetition[k] = v
	}
	return nb
}

// Turn returns the side to move.
func (b *Board) Turn() Color { return b.turn }

// EpSquare returns the current en passant target square, or SqNone.
func (b *Board) EpSquare() Square { return b.epSquare }

// Castling returns the current castling rights.
func (b *Board) Castling() CastlingRights { return b.castling }

// PieceAt returns the piece on sq, or PieceNone.
func (b *Board) PieceAt(sq Square) Piece { return b.squares[sq] }

// PieceCount returns the total number of pieces (including kings) on the board.
func (b *Board) PieceCount() int {
	n := 0
	for _, p := range b.squares {
		if p != PieceNone {
			n++
		}
	}
	return n
}

// MoveStackLen returns the number of moves played since the position
// was constructed (the depth of the undo history).
func (b *Board) MoveStackLen() int { return len(b.history) }

// HalfmoveClock returns the current 50-move-rule counter.
func (b *Board) HalfmoveClock() int { return b.halfmove }

func kingSquare(b *Board, c Color) Square {
	target := MakePiece(c, King)
	for sq, p := range b.squares {
		if p == target {
			return Square(sq)
		}
	}
	return SqNone
}

// IsAttacked reports whether sq is attacked by a piece of color `by`.
func (b *Board) IsAttacked(sq Square, by Color) bool {
	// Pawns.
	pawnRankDir := 1
	if by == Black {
		pawnRankDir = -1
	}
	for _, df := range []int{-1, 1} {
		f := sq.File() + df
		r := sq.Rank() - pawnRankDir
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			if b.squares[NewSquare(f, r)] == MakePiece(by, Pawn) {
				return true
			}
		}
	}
	// Knights.
	for _, d := range knightDeltas {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			if b.squares[NewSquare(f, r)] == MakePiece(by, Knight) {
				return true
			}
		}
	}
	// King.
	for _, d := range kingDeltas {
		f, r := sq.File()+d[0], sq.Rank()+d[1]
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			if b.squares[NewSquare(f, r)] == MakePiece(by, King) {
				return true
			}
		}
	}
	// Sliding: bishop/queen on diagonals, rook/queen on files/ranks.
	if b.slides(sq, diagonalDeltas, by, Bishop, Queen) {
		return true
	}
	if b.slides(sq, orthogonalDeltas, by, Rook, Queen) {
		return true
	}
	return false
}

func (b *Board) slides(from Square, deltas [][2]int, by Color, pt1, pt2 PieceType) bool {
	for _, d := range deltas {
		f, r := from.File()+d[0], from.Rank()+d[1]
		for f >= 0 && f < 8 && r >= 0 && r < 8 {
			p := b.squares[NewSquare(f, r)]
			if p != PieceNone {
				if p.ColorOf() == by && (p.TypeOf() == pt1 || p.TypeOf() == pt2) {
					return true
				}
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return false
}

var knightDeltas = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingDeltas = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var diagonalDeltas = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var orthogonalDeltas = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool {
	return b.IsAttacked(kingSquare(b, b.turn), b.turn.Flip())
}

// IsCheckmate reports whether the side to move is checkmated.
func (b *Board) IsCheckmate() bool {
	return b.InCheck() && len(b.LegalMoves()) == 0
}

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (b *Board) IsStalemate() bool {
	return !b.InCheck() && len(b.LegalMoves()) == 0
}

// IsInsufficientMaterial reports a dead position by material alone
// (K vs K, K+N vs K, K+B vs K; same-color bishops are not special-cased).
func (b *Board) IsInsufficientMaterial() bool {
	minor := 0
	for _, p := range b.squares {
		switch p.TypeOf() {
		case Pawn, Rook, Queen:
			if p != PieceNone {
				return false
			}
		case Knight, Bishop:
			minor++
		}
	}
	return minor <= 1
}

// CanClaimDraw reports a draw claimable by rule: 50-move clock reached
// or the current position has repeated three times.
func (b *Board) CanClaimDraw() bool {
	if b.halfmove >= 100 {
		return true
	}
	return b.repetition[b.Epd()] >= 3
}
