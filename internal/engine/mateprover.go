package engine

import (
	"context"
	"sync"

	"github.com/cdbsearch/cdbsearch/internal/board"
	"github.com/cdbsearch/cdbsearch/internal/tt"
)

// scoredMovesFor returns the scored moves known for pos, preferring the
// local transposition table over a fresh network round trip -- the mate
// prover runs after the search that populated it, so most positions it
// revisits are already cached.
func (c *ChessDB) scoredMovesFor(ctx context.Context, pos *board.Board) (map[string]int, bool) {
	epd := pos.Epd()
	if cached, ok := c.tt.Get(epd); ok {
		return cached.Moves, true
	}
	scored, err := c.queryAllCounted(ctx, epd, false, func() []string { return legalUCIMoves(pos) })
	if err != nil || !scored.Valid {
		return nil, false
	}
	c.tt.Set(epd, tt.Entry{Depth: 0, Moves: scored.Moves})
	return scored.Moves, true
}

// obtainPV follows the locally known best-move chain for d plies, used by
// the mate prover to build a comparison line for a defensive alternative
// that the top-level search never explored itself.
func (c *ChessDB) obtainPV(ctx context.Context, pos *board.Board, d int) []string {
	if pos.IsCheckmate() {
		return []string{"checkmate"}
	}
	if pos.IsStalemate() || pos.IsInsufficientMaterial() || pos.CanClaimDraw() {
		return []string{"draw"}
	}
	if d <= 0 {
		return nil
	}

	scored, ok := c.scoredMovesFor(ctx, pos)
	if !ok {
		return []string{"invalid"}
	}
	legalMoves := pos.LegalMoves()
	bestUci, _, found := pickBest(legalMoves, scored)
	if !found {
		return nil
	}
	m := moveFromUci(legalMoves, bestUci)
	if !m.IsValid() {
		return nil
	}
	pos.Push(m)
	rest := c.obtainPV(ctx, pos, d-1)
	pos.Pop()
	return append([]string{bestUci}, rest...)
}

// proveMate verifies that the claimed mate-ending pv from pos has no
// better defence: every defensive alternative along the way must also
// lead to a proven mate. It returns false (not an error) whenever the
// proof cannot yet be completed -- typically because some defensive
// reply is still unscored by the remote database, in which case queryall
// is scheduled for the missing children and unscored is bumped.
func (c *ChessDB) proveMate(ctx context.Context, pos *board.Board, pv []string) bool {
	if len(pv) == 0 {
		return false
	}
	if len(pv) == 1 {
		return pv[0] == "checkmate" && pos.IsCheckmate()
	}

	if len(pv)%2 == 0 {
		// Attacker to move: the move is forced by the claimed line.
		m, err := pos.ParseUciMove(pv[0])
		if err != nil {
			return false
		}
		pos.Push(m)
		res := c.proveMate(ctx, pos, pv[1:])
		pos.Pop()
		return res
	}

	// Defender to move: every legal reply must be accounted for.
	scored, ok := c.scoredMovesFor(ctx, pos)
	if !ok {
		return false
	}
	legalMoves := pos.LegalMoves()

	var unscored []board.Move
	for _, m := range legalMoves {
		if _, hasScore := scored[m.StringUci()]; !hasScore {
			unscored = append(unscored, m)
		}
	}
	if len(unscored) > 0 {
		c.Counters.addUnscored(int64(len(unscored)))
		for _, m := range unscored {
			child := pos.Copy()
			child.Push(m)
			c.goTracked(func() {
				_, _ = c.queryAllCounted(context.Background(), child.Epd(), false, func() []string { return legalUCIMoves(child) })
			})
		}
		return false
	}

	defenderUci := pv[0]
	defenderMove, err := pos.ParseUciMove(defenderUci)
	if err != nil {
		return false
	}
	pos.Push(defenderMove)
	attackerMove, err := pos.ParseUciMove(pv[1])
	if err != nil {
		pos.Pop()
		return false
	}
	pos.Push(attackerMove)
	verified := c.proveMate(ctx, pos, pv[2:])
	pos.Pop()
	pos.Pop()
	if !verified {
		return false
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allProven := true
	for _, m := range legalMoves {
		if m == defenderMove {
			continue
		}
		wg.Add(1)
		go func(m board.Move) {
			defer wg.Done()
			child := pos.Copy()
			child.Push(m)
			childPV := c.obtainPV(ctx, child, len(pv)-2)
			proven := c.proveMate(ctx, child, childPV)
			if !proven {
				mu.Lock()
				allProven = false
				mu.Unlock()
			}
		}(m)
	}
	wg.Wait()

	return allProven
}
