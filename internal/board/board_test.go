package board

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/cdbsearch/cdbsearch/internal/types"
)

func TestNewBoardIsStartPosition(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, StartFEN, b.FEN())
}

func TestParseFenRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"8/8/8/4k3/8/8/4K3/4R3 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3 0 1",
	}
	for _, fen := range fens {
		b, err := ParseFEN(fen)
		assert.NoError(t, err)
		assert.Equal(t, fen, b.FEN())
	}
}

func TestParseFenRejectsMalformed(t *testing.T) {
	_, err := ParseFEN("not a fen")
	assert.Error(t, err)
}

func TestEpdOmitsCounters(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", b.Epd())
}

func TestPushPopRestoresFen(t *testing.T) {
	b := NewBoard()
	before := b.FEN()
	m, err := b.ParseUciMove("e2e4")
	assert.NoError(t, err)
	b.Push(m)
	assert.NotEqual(t, before, b.FEN())
	b.Pop()
	assert.Equal(t, before, b.FEN())
}

func TestCopyIsIndependent(t *testing.T) {
	b := NewBoard()
	c := b.Copy()
	m, _ := b.ParseUciMove("e2e4")
	b.Push(m)
	assert.NotEqual(t, b.FEN(), c.FEN())
	assert.Equal(t, StartFEN, c.FEN())
}

func TestIsCheckmateFoolsMate(t *testing.T) {
	b := NewBoard()
	for _, uci := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		assert.NoError(t, b.PushUci(uci))
	}
	assert.True(t, b.IsCheckmate())
	assert.Empty(t, b.LegalMoves())
}

func TestIsStalemate(t *testing.T) {
	// classic stalemate: black king a8, white king b6, white queen c7, black to move.
	b, err := ParseFEN("k7/2Q5/1K6/8/8/8/8/8 b - -")
	assert.NoError(t, err)
	assert.True(t, b.IsStalemate())
	assert.False(t, b.IsCheckmate())
}

func TestIsInsufficientMaterial(t *testing.T) {
	b, err := ParseFEN("8/8/8/4k3/8/8/4K3/8 w - -")
	assert.NoError(t, err)
	assert.True(t, b.IsInsufficientMaterial())

	b2, err := ParseFEN("8/8/8/4k3/8/8/4K3/3QR3 w - -")
	assert.NoError(t, err)
	assert.False(t, b2.IsInsufficientMaterial())
}

func TestCanClaimDrawFiftyMove(t *testing.T) {
	b, err := ParseFEN("8/8/8/4k3/8/8/4K3/8 w - - 100 60")
	assert.NoError(t, err)
	assert.True(t, b.CanClaimDraw())
}

func TestCanClaimDrawThreefold(t *testing.T) {
	b := NewBoard()
	moves := []string{"g1f3", "g8f6", "f3g1", "f6g8"}
	for i := 0; i < 2; i++ {
		for _, uci := range moves {
			assert.NoError(t, b.PushUci(uci))
		}
	}
	assert.True(t, b.CanClaimDraw())
}

func TestPushPopAcrossCastling(t *testing.T) {
	b, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq -")
	assert.NoError(t, err)
	before := b.Epd()
	m, err := b.ParseUciMove("e1g1")
	assert.NoError(t, err)
	b.Push(m)
	assert.Equal(t, MakePiece(White, Rook), b.PieceAt(SqF1))
	assert.Equal(t, PieceNone, b.PieceAt(SqH1))
	b.Pop()
	assert.Equal(t, before, b.Epd())
	assert.Equal(t, MakePiece(White, Rook), b.PieceAt(SqH1))
}

func TestPieceCount(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, 32, b.PieceCount())
}

func TestMoveStackLen(t *testing.T) {
	b := NewBoard()
	assert.Equal(t, 0, b.MoveStackLen())
	assert.NoError(t, b.PushUci("e2e4"))
	assert.Equal(t, 1, b.MoveStackLen())
	b.Pop()
	assert.Equal(t, 0, b.MoveStackLen())
}
