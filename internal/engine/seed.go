package engine

import (
	"context"

	"github.com/cdbsearch/cdbsearch/internal/board"
	"github.com/cdbsearch/cdbsearch/internal/tt"
)

// seedCdbPV fetches the remote database's own principal variation for the
// root position and records, for every position along it, its distance to
// the PV leaf in cdbPvToLeaf -- the table search consults to decide whether
// a move lying on that line deserves the one-ply PV extension. Every
// intermediate position also gets a background queryall so its
// transposition-table entry is primed before the search tree reaches it.
func (c *ChessDB) seedCdbPV(ctx context.Context, root *board.Board) {
	rootEpd := root.Epd()
	pv, err := c.client.QueryPV(ctx, c.work, rootEpd)
	if err != nil || len(pv) == 0 {
		return
	}

	c.setPvToLeaf(rootEpd, len(pv))

	pos := root.Copy()
	for i, uci := range pv {
		m, err := pos.ParseUciMove(uci)
		if err != nil {
			break
		}
		pos.Push(m)

		epd := pos.Epd()
		distance := len(pv) - 1 - i
		c.setPvToLeaf(epd, distance)

		primePos := pos.Copy()
		c.goTracked(func() {
			scored, err := c.queryAllCounted(context.Background(), primePos.Epd(), false, func() []string { return legalUCIMoves(primePos) })
			if err == nil && scored.Valid {
				c.tt.Set(primePos.Epd(), tt.Entry{Depth: 0, Moves: scored.Moves})
			}
		})
	}
}
