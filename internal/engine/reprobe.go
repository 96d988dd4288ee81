package engine

import (
	"context"

	"github.com/cdbsearch/cdbsearch/internal/board"
)

// terminalMarkers are the sentinel PV entries that denote a leaf rather
// than an actual move; reprobePV and the driver strip/recognise them
// instead of trying to push them onto a board.
var terminalMarkers = map[string]bool{
	"checkmate": true,
	"draw":      true,
	"invalid":   true,
	"EGTB":      true,
}

func isTerminalMarker(s string) bool { return terminalMarkers[s] }

// reprobePV plays a chosen PV onto pos (a copy of the board of the node it
// was computed at), then walks back from the PV's leaf through that node
// down to the root of pos's move stack, issuing a skip-TT queryall at every
// position along the way. It is fired as a tracked background goroutine so
// newly discovered deeper evaluations get a chance to propagate back into
// the remote database's own cache, without delaying the search that found them.
func (c *ChessDB) reprobePV(ctx context.Context, pos *board.Board, pv []string) {
	for _, uci := range pv {
		if isTerminalMarker(uci) {
			continue
		}
		m, err := pos.ParseUciMove(uci)
		if err != nil {
			break
		}
		pos.Push(m)
	}

	for {
		c.Counters.incReprobe()
		_, _ = c.queryAllCounted(ctx, pos.Epd(), true, func() []string { return legalUCIMoves(pos) })
		if pos.MoveStackLen() == 0 {
			break
		}
		pos.Pop()
	}
}
