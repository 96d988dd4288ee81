package board

import (
	"fmt"
	"strings"

	. "github.com/cdbsearch/cdbsearch/internal/types"
)

// LegalMoves returns every legal move for the side to move.
func (b *Board) LegalMoves() []Move {
	pseudo := b.pseudoLegalMoves()
	legal := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		b.Push(m)
		ok := !b.IsAttacked(kingSquare(b, b.turn.Flip()), b.turn)
		b.Pop()
		if ok {
			legal = append(legal, m)
		}
	}
	return legal
}

func (b *Board) pseudoLegalMoves() []Move {
	moves := make([]Move, 0, 48)
	us := b.turn
	for sqI, p := range b.squares {
		if p == PieceNone || p.ColorOf() != us {
			continue
		}
		sq := Square(sqI)
		switch p.TypeOf() {
		case Pawn:
			b.genPawnMoves(sq, &moves)
		case Knight:
			b.genStepMoves(sq, knightDeltas, &moves)
		case King:
			b.genStepMoves(sq, kingDeltas, &moves)
			b.genCastles(sq, &moves)
		case Bishop:
			b.genSlideMoves(sq, diagonalDeltas, &moves)
		case Rook:
			b.genSlideMoves(sq, orthogonalDeltas, &moves)
		case Queen:
			b.genSlideMoves(sq, diagonalDeltas, &moves)
			b.genSlideMoves(sq, orthogonalDeltas, &moves)
		}
	}
	return moves
}

func (b *Board) genStepMoves(from Square, deltas [][2]int, moves *[]Move) {
	us := b.turn
	for _, d := range deltas {
		f, r := from.File()+d[0], from.Rank()+d[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		to := NewSquare(f, r)
		target := b.squares[to]
		if target == PieceNone || target.ColorOf() != us {
			*moves = append(*moves, NewMove(from, to))
		}
	}
}

func (b *Board) genSlideMoves(from Square, deltas [][2]int, moves *[]Move) {
	us := b.turn
	for _, d := range deltas {
		f, r := from.File()+d[0], from.Rank()+d[1]
		for f >= 0 && f < 8 && r >= 0 && r < 8 {
			to := NewSquare(f, r)
			target := b.squares[to]
			if target == PieceNone {
				*moves = append(*moves, NewMove(from, to))
			} else {
				if target.ColorOf() != us {
					*moves = append(*moves, NewMove(from, to))
				}
				break
			}
			f += d[0]
			r += d[1]
		}
	}
}

func (b *Board) genPawnMoves(from Square, moves *[]Move) {
	us := b.turn
	dir := 1
	startRank, promoRank := 1, 7
	if us == Black {
		dir = -1
		startRank, promoRank = 6, 0
	}

	addPawnMove := func(from, to Square) {
		if to.Rank() == promoRank {
			for _, pt := range []PieceType{Queen, Rook, Bishop, Knight} {
				*moves = append(*moves, NewPromotionMove(from, to, pt))
			}
			return
		}
		*moves = append(*moves, NewMove(from, to))
	}

	// Single push.
	r1 := from.Rank() + dir
	if r1 >= 0 && r1 < 8 {
		one := NewSquare(from.File(), r1)
		if b.squares[one] == PieceNone {
			addPawnMove(from, one)
			// Double push.
			if from.Rank() == startRank {
				r2 := from.Rank() + 2*dir
				two := NewSquare(from.File(), r2)
				if b.squares[two] == PieceNone {
					*moves = append(*moves, NewMove(from, two))
				}
			}
		}
	}
	// Captures, including en passant.
	for _, df := range []int{-1, 1} {
		f := from.File() + df
		r := from.Rank() + dir
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		to := NewSquare(f, r)
		target := b.squares[to]
		if target != PieceNone && target.ColorOf() != us {
			addPawnMove(from, to)
		} else if to == b.epSquare {
			*moves = append(*moves, NewMove(from, to))
		}
	}
}

func (b *Board) genCastles(kingSq Square, moves *[]Move) {
	us := b.turn
	back := 0
	if us == Black {
		back = 7
	}
	if kingSq != NewSquare(4, back) {
		return
	}
	enemy := us.Flip()
	if b.IsAttacked(kingSq, enemy) {
		return
	}
	kingside := CastlingWhiteOO
	queenside := CastlingWhiteOOO
	if us == Black {
		kingside, queenside = CastlingBlackOO, CastlingBlackOOO
	}
	if b.castling.Has(kingside) &&
		b.squares[NewSquare(5, back)] == PieceNone && b.squares[NewSquare(6, back)] == PieceNone &&
		!b.IsAttacked(NewSquare(5, back), enemy) && !b.IsAttacked(NewSquare(6, back), enemy) {
		*moves = append(*moves, NewMove(kingSq, NewSquare(6, back)))
	}
	if b.castling.Has(queenside) &&
		b.squares[NewSquare(3, back)] == PieceNone && b.squares[NewSquare(2, back)] == PieceNone && b.squares[NewSquare(1, back)] == PieceNone &&
		!b.IsAttacked(NewSquare(3, back), enemy) && !b.IsAttacked(NewSquare(2, back), enemy) {
		*moves = append(*moves, NewMove(kingSq, NewSquare(2, back)))
	}
}

// Push plays m on the board, recording enough state to undo it with Pop.
// The caller is responsible for only pushing moves returned by LegalMoves
// (or otherwise known-legal, e.g. parsed from a trusted PV).
func (b *Board) Push(m Move) {
	from, to := m.From(), m.To()
	moved := b.squares[from]
	captured := b.squares[to]
	back := 0
	if b.turn == Black {
		back = 7
	}

	entry := undoEntry{
		move:       m,
		captured:   captured,
		castling:   b.castling,
		epSquare:   b.epSquare,
		halfmove:   b.halfmove,
		movedPiece: moved,
	}

	isEnPassant := moved.TypeOf() == Pawn && to == b.epSquare && captured == PieceNone
	if isEnPassant {
		capSq := NewSquare(to.File(), from.Rank())
		entry.captured = b.squares[capSq]
		b.squares[capSq] = PieceNone
	}

	b.squares[to] = moved
	b.squares[from] = PieceNone
	if promo := m.Promotion(); promo != PtNone {
		b.squares[to] = MakePiece(b.turn, promo)
	}

	// Rook relocation on castling.
	if moved.TypeOf() == King {
		if from == NewSquare(4, back) && to == NewSquare(6, back) {
			b.squares[NewSquare(5, back)] = b.squares[NewSquare(7, back)]
			b.squares[NewSquare(7, back)] = PieceNone
		} else if from == NewSquare(4, back) && to == NewSquare(2, back) {
			b.squares[NewSquare(3, back)] = b.squares[NewSquare(0, back)]
			b.squares[NewSquare(0, back)] = PieceNone
		}
	}

	// Castling rights update.
	b.castling &^= rightsLostBy(from)
	b.castling &^= rightsLostBy(to)

	// En passant target for the next move.
	b.epSquare = SqNone
	if moved.TypeOf() == Pawn && abs(int(to)-int(from)) == 16 {
		b.epSquare = NewSquare(from.File(), (from.Rank()+to.Rank())/2)
	}

	if moved.TypeOf() == Pawn || captured != PieceNone || isEnPassant {
		b.halfmove = 0
	} else {
		b.halfmove++
	}
	if b.turn == Black {
		b.fullmove++
	}

	b.turn = b.turn.Flip()
	b.history = append(b.history, entry)
	b.repetition[b.Epd()]++
}

// Pop undoes the last move played with Push.
func (b *Board) Pop() {
	n := len(b.history)
	if n == 0 {
		panic("board: Pop called with empty history")
	}
	entry := b.history[n-1]
	b.history = b.history[:n-1]

	b.repetition[b.Epd()]--
	if b.repetition[b.Epd()] <= 0 {
		delete(b.repetition, b.Epd())
	}

	b.turn = b.turn.Flip()
	if b.turn == Black {
		b.fullmove--
	}
	b.halfmove = entry.halfmove
	b.epSquare = entry.epSquare
	b.castling = entry.castling

	from, to := entry.move.From(), entry.move.To()
	back := 0
	if b.turn == Black {
		back = 7
	}

	b.squares[from] = entry.movedPiece
	b.squares[to] = PieceNone

	isEnPassant := entry.movedPiece.TypeOf() == Pawn && to == b.epSquare && entry.captured != PieceNone && entry.captured.TypeOf() == Pawn && to.File() != from.File()
	if isEnPassant {
		capSq := NewSquare(to.File(), from.Rank())
		b.squares[capSq] = entry.captured
	} else {
		b.squares[to] = entry.captured
	}

	if entry.movedPiece.TypeOf() == King {
		if from == NewSquare(4, back) && to == NewSquare(6, back) {
			b.squares[NewSquare(7, back)] = b.squares[NewSquare(5, back)]
			b.squares[NewSquare(5, back)] = PieceNone
		} else if from == NewSquare(4, back) && to == NewSquare(2, back) {
			b.squares[NewSquare(0, back)] = b.squares[NewSquare(3, back)]
			b.squares[NewSquare(3, back)] = PieceNone
		}
	}
}

func rightsLostBy(sq Square) CastlingRights {
	switch sq {
	case SqE1:
		return CastlingWhiteOO | CastlingWhiteOOO
	case SqA1:
		return CastlingWhiteOOO
	case SqH1:
		return CastlingWhiteOO
	case SqE8:
		return CastlingBlackOO | CastlingBlackOOO
	case SqA8:
		return CastlingBlackOOO
	case SqH8:
		return CastlingBlackOO
	default:
		return CastlingNone
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ParseUciMove resolves a UCI move string (e.g. "e2e4", "e7e8q") against
// the board's legal moves. It returns an error if the move is not legal
// in the current position.
func (b *Board) ParseUciMove(uci string) (Move, error) {
	uci = strings.TrimSpace(uci)
	if len(uci) < 4 {
		return MoveNone, fmt.Errorf("board: malformed uci move %q", uci)
	}
	from, ok1 := SquareFromString(uci[0:2])
	to, ok2 := SquareFromString(uci[2:4])
	if !ok1 || !ok2 {
		return MoveNone, fmt.Errorf("board: malformed uci move %q", uci)
	}
	var promo PieceType = PtNone
	if len(uci) >= 5 {
		pt, ok := PieceTypeFromLetter(uci[4])
		if !ok {
			return MoveNone, fmt.Errorf("board: bad promotion letter in %q", uci)
		}
		promo = pt
	}
	for _, m := range b.LegalMoves() {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	return MoveNone, fmt.Errorf("board: %q is not legal in this position", uci)
}

// PushUci parses and plays a UCI move string.
func (b *Board) PushUci(uci string) error {
	m, err := b.ParseUciMove(uci)
	if err != nil {
		return err
	}
	b.Push(m)
	return nil
}
