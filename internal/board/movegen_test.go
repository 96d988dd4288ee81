package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/cdbsearch/cdbsearch/internal/types"
)

func TestLegalMovesStartPosition(t *testing.T) {
	b := NewBoard()
	assert.Len(t, b.LegalMoves(), 20)
}

func TestLegalMovesPinnedPieceCannotMove(t *testing.T) {
	// white king e1, white rook e2 pinned by black rook e8.
	b, err := ParseFEN("4r3/8/8/8/8/8/4R3/4K3 w - -")
	assert.NoError(t, err)
	for _, m := range b.LegalMoves() {
		if m.From().String() == "e2" {
			assert.Equal(t, 4, m.To().File(), "pinned rook must not step off the e-file")
		}
	}
}

func TestEnPassantCapture(t *testing.T) {
	b, err := ParseFEN("4k3/8/8/8/Pp6/8/8/4K3 b - a3")
	assert.NoError(t, err)
	m, err := b.ParseUciMove("b4a3")
	assert.NoError(t, err)
	b.Push(m)
	assert.Equal(t, PieceNone, b.PieceAt(SqA4))
}

func TestPromotion(t *testing.T) {
	b, err := ParseFEN("4k3/P7/8/8/8/8/8/4K3 w - -")
	assert.NoError(t, err)
	m, err := b.ParseUciMove("a7a8q")
	assert.NoError(t, err)
	assert.Equal(t, Queen, m.Promotion())
	b.Push(m)
	assert.Equal(t, MakePiece(White, Queen), b.PieceAt(SqA8))
}

func TestCastlingKingside(t *testing.T) {
	b, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq -")
	assert.NoError(t, err)
	m, err := b.ParseUciMove("e1g1")
	assert.NoError(t, err)
	b.Push(m)
	assert.Equal(t, MakePiece(White, King), b.PieceAt(SqG1))
	assert.Equal(t, MakePiece(White, Rook), b.PieceAt(SqF1))
}

func TestCastlingRightsLostAfterRookMoves(t *testing.T) {
	b, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq -")
	assert.NoError(t, err)
	assert.NoError(t, b.PushUci("h1h2"))
	assert.Equal(t, CastlingNone, b.Castling()&CastlingWhiteOO)
}

func TestParseUciMoveRejectsIllegal(t *testing.T) {
	b := NewBoard()
	_, err := b.ParseUciMove("e2e5")
	assert.Error(t, err)
}

func TestPushUciTruncatesOnIllegalMove(t *testing.T) {
	b := NewBoard()
	assert.NoError(t, b.PushUci("e2e4"))
	assert.Error(t, b.PushUci("e2e4")) // no longer legal, pawn already moved
}

func TestCheckEvasionsLimitLegalMoves(t *testing.T) {
	// white king checked by black rook on the e-file; every legal move
	// must get the king off the file since nothing can block or capture.
	b, err := ParseFEN("4r3/8/8/8/8/8/8/4K3 w - -")
	assert.NoError(t, err)
	assert.True(t, b.InCheck())
	moves := b.LegalMoves()
	assert.NotEmpty(t, moves)
	for _, m := range moves {
		assert.NotEqual(t, 4, m.To().File(), "king must leave the e-file to escape check")
	}
}
