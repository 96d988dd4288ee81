// Package types holds the small value types shared by the board
// representation and the search engine: squares, colors, pieces,
// castling rights and the packed move encoding.
package types

import "strings"

// Square is a board square numbered 0 (a1) to 63 (h8), rank-major.
type Square int8

// Named squares, a1..h8, plus the sentinel SqNone.
const (
	SqA1 Square = iota
	SqB1
	SqC1
	SqD1
	SqE1
	SqF1
	SqG1
	SqH1
	SqA2
	SqB2
	SqC2
	SqD2
	SqE2
	SqF2
	SqG2
	SqH2
	SqA3
	SqB3
	SqC3
	SqD3
	SqE3
	SqF3
	SqG3
	SqH3
	SqA4
	SqB4
	SqC4
	SqD4
	SqE4
	SqF4
	SqG4
	SqH4
	SqA5
	SqB5
	SqC5
	SqD5
	SqE5
	SqF5
	SqG5
	SqH5
	SqA6
	SqB6
	SqC6
	SqD6
	SqE6
	SqF6
	SqG6
	SqH6
	SqA7
	SqB7
	SqC7
	SqD7
	SqE7
	SqF7
	SqG7
	SqH7
	SqA8
	SqB8
	SqC8
	SqD8
	SqE8
	SqF8
	SqG8
	SqH8
	SqNone
	SqLength = SqNone
)

// File returns the file (0=a .. 7=h) of the square.
func (sq Square) File() int { return int(sq) % 8 }

// Rank returns the rank (0=rank1 .. 7=rank8) of the square.
func (sq Square) Rank() int { return int(sq) / 8 }

// NewSquare builds a square from a zero based file and rank.
func NewSquare(file, rank int) Square { return Square(rank*8 + file) }

// IsValid reports whether sq is one of the 64 board squares.
func (sq Square) IsValid() bool { return sq >= SqA1 && sq < SqNone }

// String renders the square in algebraic notation, e.g. "e4".
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return string([]byte{"abcdefgh"[sq.File()], "12345678"[sq.Rank()]})
}

// SquareFromString parses algebraic notation, e.g. "e4", into a Square.
func SquareFromString(s string) (Square, bool) {
	if len(s) != 2 {
		return SqNone, false
	}
	file := strings.IndexByte("abcdefgh", s[0])
	rank := strings.IndexByte("12345678", s[1])
	if file < 0 || rank < 0 {
		return SqNone, false
	}
	return NewSquare(file, rank), true
}

// Color is the side to move or the owner of a piece.
type Color int8

// Color values.
const (
	White Color = iota
	Black
	ColorNone
)

// Flip returns the opposing color.
func (c Color) Flip() Color {
	if c == White {
		return Black
	}
	return White
}

// String renders the color as used in FEN ("w"/"b").
func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// PieceType is the kind of chess piece, independent of color.
type PieceType int8

// Piece type values.
const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	PtNone
)

var pieceTypeLetters = "pnbrqk"

// String returns the lowercase FEN letter for the piece type.
func (pt PieceType) String() string {
	if pt < Pawn || pt > King {
		return "-"
	}
	return string(pieceTypeLetters[pt])
}

// PieceTypeFromLetter parses a lowercase FEN piece letter.
func PieceTypeFromLetter(l byte) (PieceType, bool) {
	i := strings.IndexByte(pieceTypeLetters, l)
	if i < 0 {
		return PtNone, false
	}
	return PieceType(i), true
}

// Piece is a colored chess piece, or PieceNone for an empty square.
type Piece int8

// PieceNone marks an empty square.
const PieceNone Piece = -1

// MakePiece builds a Piece from a color and a piece type.
func MakePiece(c Color, pt PieceType) Piece {
	return Piece(int8(c)*6 + int8(pt))
}

// TypeOf returns the piece type of p.
func (p Piece) TypeOf() PieceType {
	if p == PieceNone {
		return PtNone
	}
	return PieceType(int8(p) % 6)
}

// ColorOf returns the owning color of p.
func (p Piece) ColorOf() Color {
	if p == PieceNone {
		return ColorNone
	}
	return Color(int8(p) / 6)
}

// String returns the FEN letter for the piece (uppercase for white).
func (p Piece) String() string {
	if p == PieceNone {
		return "."
	}
	s := p.TypeOf().String()
	if p.ColorOf() == White {
		return strings.ToUpper(s)
	}
	return s
}

// CastlingRights is a bitmask of the four castling availabilities.
type CastlingRights uint8

// Castling right bits.
const (
	CastlingWhiteOO CastlingRights = 1 << iota
	CastlingWhiteOOO
	CastlingBlackOO
	CastlingBlackOOO
	CastlingNone CastlingRights = 0
)

// Has reports whether r grants the given right.
func (r CastlingRights) Has(right CastlingRights) bool { return r&right != 0 }

// String renders castling rights the way FEN does, e.g. "KQkq" or "-".
func (r CastlingRights) String() string {
	if r == CastlingNone {
		return "-"
	}
	var b strings.Builder
	if r.Has(CastlingWhiteOO) {
		b.WriteByte('K')
	}
	if r.Has(CastlingWhiteOOO) {
		b.WriteByte('Q')
	}
	if r.Has(CastlingBlackOO) {
		b.WriteByte('k')
	}
	if r.Has(CastlingBlackOOO) {
		b.WriteByte('q')
	}
	return b.String()
}

// Move packs a from/to square pair and an optional promotion piece type
// into a single comparable value. Layout (low to high bits):
// promotion flag(1) from(6) to(6) promo(3). The remaining high bits are
// unused and always zero.
type Move uint32

// MoveNone is the zero value, used as a sentinel for "no move".
const MoveNone Move = 0

const moveNoneSentinel = 0x3F

// NewMove builds a normal (non-promotion) move.
func NewMove(from, to Square) Move {
	return Move(uint32(from)<<1 | uint32(to)<<7 | uint32(PtNone)<<13)
}

// NewPromotionMove builds a promotion move.
func NewPromotionMove(from, to Square, promo PieceType) Move {
	return Move(uint32(from)<<1 | uint32(to)<<7 | uint32(promo)<<13 | 1)
}

// From returns the move's origin square.
func (m Move) From() Square { return Square((m >> 1) & moveNoneSentinel) }

// To returns the move's destination square.
func (m Move) To() Square { return Square((m >> 7) & moveNoneSentinel) }

// Promotion returns the promotion piece type, or PtNone for a non-promotion move.
func (m Move) Promotion() PieceType {
	if m&1 == 0 {
		return PtNone
	}
	return PieceType((m >> 13) & 0x7)
}

// IsValid reports whether m is anything other than the MoveNone sentinel.
func (m Move) IsValid() bool { return m != MoveNone }

// StringUci renders the move as CDB/UCI expects it: "e2e4" or "e7e8q".
func (m Move) StringUci() string {
	if m == MoveNone {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if promo := m.Promotion(); promo != PtNone {
		s += promo.String()
	}
	return s
}

// String is an alias of StringUci to satisfy fmt.Stringer for logging.
func (m Move) String() string { return m.StringUci() }
