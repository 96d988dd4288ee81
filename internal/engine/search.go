package engine

import (
	"context"
	"sync"

	"github.com/cdbsearch/cdbsearch/internal/board"
	"github.com/cdbsearch/cdbsearch/internal/cdb"
	"github.com/cdbsearch/cdbsearch/internal/config"
	"github.com/cdbsearch/cdbsearch/internal/tt"
	"github.com/cdbsearch/cdbsearch/internal/types"
)

// Result is the outcome of one search call: the score from the
// perspective of the side to move at that node, the principal variation
// leading to a leaf or terminal marker, and the deepest level reached
// anywhere in the subtree.
type Result struct {
	Score    int
	PV       []string
	MaxLevel int
}

// queryAllCounted wraps the protocol adapter's QueryAll with the network
// counters: every call goes to the network, so each one increments
// uncached and tracks in-flight load. The queryall counter is not touched
// here; search increments it once per node lookup, cached or not.
func (c *ChessDB) queryAllCounted(ctx context.Context, epd string, skipTT bool, legalMoves func() []string) (cdb.ScoredMoves, error) {
	c.Counters.incUncached()
	c.Counters.beginInflight(true)
	defer c.Counters.endInflight()
	return c.client.QueryAll(ctx, c.work, epd, skipTT, c.opts.CursedWins, legalMoves, c.Counters.incEnqueued)
}

// floorDiv is integer division rounding toward negative infinity, needed
// because the depth-reduction formula uses floor division on possibly
// negative deltas while Go's / truncates toward zero.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// moveDepth implements the decay-based depth-reduction policy: scored
// moves are reduced proportionally to their centipawn deficit from the
// node's best score; unscored moves are reduced by the gap between best
// and worst known scores and capped at a non-positive depth.
func moveDepth(score *int, bestscore, worstscore, depth, evalDecay int) int {
	if score != nil {
		delta := *score - bestscore
		var decay int
		if evalDecay == 0 {
			decay = delta * 1000000
		} else {
			decay = floorDiv(delta, evalDecay)
		}
		return depth + decay - 1
	}
	delta := worstscore - bestscore
	var decay int
	if evalDecay == 0 {
		decay = delta * 1000000
	} else {
		decay = floorDiv(delta, evalDecay)
	}
	return minInt(0, depth+decay-2)
}

// search is the selective best-first tree search at the core of the
// engine: it queries (or reuses a cached) scored-move set for pos, walks
// the decay, unique-best-move and CDB-PV extension rules to decide which legal
// moves get explored further, recurses on those concurrently bounded by
// the per-level semaphore, and reconciles the result with an optional
// skip-TT completeness probe before storing it back into the
// transposition table.
func (c *ChessDB) search(ctx context.Context, pos *board.Board, depth, level, rootDepth int) Result {
	if pos.IsCheckmate() {
		return Result{Score: -cdb.Mate, PV: []string{"checkmate"}, MaxLevel: level}
	}
	if pos.IsStalemate() || pos.IsInsufficientMaterial() || pos.CanClaimDraw() {
		return Result{Score: 0, PV: []string{"draw"}, MaxLevel: level}
	}

	epd := pos.Epd()
	c.Counters.incQueryAll()

	var scored cdb.ScoredMoves
	if cached, ok := c.tt.Get(epd); ok && cached.Depth >= depth {
		scored = cdb.ScoredMoves{Valid: true, Moves: cached.Moves}
	} else {
		var err error
		scored, err = c.queryAllCounted(ctx, epd, false, func() []string { return legalUCIMoves(pos) })
		if err != nil {
			return Result{Score: 0, PV: []string{"invalid"}, MaxLevel: level}
		}
	}
	if !scored.Valid {
		return Result{Score: 0, PV: []string{"invalid"}, MaxLevel: level}
	}

	legalMoves := pos.LegalMoves()

	if !c.opts.TBSearch && pos.PieceCount() <= cdb.Egtb {
		if bestMove, bestScore, ok := pickBest(legalMoves, scored.Moves); ok && absInt(bestScore) != 1 {
			adjusted := bestScore
			if absInt(adjusted) > cdb.Special {
				adjusted -= sign(adjusted)
			}
			return Result{Score: adjusted, PV: []string{bestMove, "EGTB"}, MaxLevel: level}
		}
	}

	scoredCount := len(scored.Moves)
	legalCount := len(legalMoves)

	if scoredCount < minInt(cdb.Sieved, legalCount) {
		c.Counters.incRequeued()
		c.goTracked(func() {
			_ = c.client.Queue(context.Background(), c.work, epd)
		})
	}

	var skipTTChan chan cdb.ScoredMoves
	if (depth > config.DepthForceQuery && scoredCount < legalCount) || scoredCount < legalCount {
		skipTTChan = make(chan cdb.ScoredMoves, 1)
		c.goTracked(func() {
			res, err := c.queryAllCounted(context.Background(), epd, true, func() []string { return legalUCIMoves(pos) })
			if err == nil {
				skipTTChan <- res
			} else {
				skipTTChan <- cdb.ScoredMoves{}
			}
		})
	}

	bestscore, worstscore := bestWorst(scored.Moves)

	type candidate struct {
		move     types.Move
		uci      string
		score    int
		hasScore bool
		newdepth int
		eligible bool
	}

	candidates := make([]candidate, len(legalMoves))
	movesToSearch := 0
	for i, m := range legalMoves {
		uci := m.StringUci()
		s, ok := scored.Moves[uci]
		var nd int
		if ok {
			nd = moveDepth(&s, bestscore, worstscore, depth, c.opts.EvalDecay)
		} else {
			nd = moveDepth(nil, bestscore, worstscore, depth, c.opts.EvalDecay)
		}
		candidates[i] = candidate{move: m, uci: uci, score: s, hasScore: ok, newdepth: nd}
		if nd >= 0 {
			movesToSearch++
		}
	}

	allowMaxExtension := true
	allowUnscored := true
	forceUnscored := depth-scoredCount > config.DepthUnscored

	for i := range candidates {
		cand := &candidates[i]
		if cand.hasScore && cand.score == bestscore {
			extend := false
			if movesToSearch == 1 && depth > config.DepthAllowExts {
				extend = true
			} else {
				pos.Push(cand.move)
				childEpd := pos.Epd()
				pos.Pop()
				if d, ok := c.pvToLeaf(childEpd); ok && d > cand.newdepth {
					extend = true
				}
			}
			if extend {
				cand.newdepth++
			}
		}

		if level >= rootDepth+config.DepthMaxExtension {
			if cand.hasScore && cand.score == bestscore && allowMaxExtension {
				allowMaxExtension = false
			} else {
				cand.newdepth = -1
			}
		}

		if cand.hasScore {
			cand.eligible = cand.newdepth >= 0
			continue
		}
		if scoredCount >= cdb.Sieved && cand.newdepth >= 0 && allowUnscored {
			cand.eligible = true
			allowUnscored = false
			continue
		}
		if forceUnscored && allowUnscored {
			cand.eligible = true
			allowUnscored = false
			if cand.newdepth < 0 {
				cand.newdepth = 0
			}
		}
	}

	newlyScored := make(map[string]int, len(candidates))
	minicache := make(map[string][]string, len(candidates))
	maxLevel := level

	type childOutcome struct {
		uci string
		res Result
	}
	outcomes := make([]childOutcome, 0, movesToSearch)
	var mu sync.Mutex
	var wg sync.WaitGroup

	if err := c.levels.Acquire(ctx, level); err == nil {
		for i := range candidates {
			cand := candidates[i]
			if !cand.eligible {
				continue
			}
			wg.Add(1)
			go func(cand candidate) {
				defer wg.Done()
				child := pos.Copy()
				child.Push(cand.move)
				childResult := c.search(ctx, child, cand.newdepth, level+1, rootDepth)
				mu.Lock()
				outcomes = append(outcomes, childOutcome{uci: cand.uci, res: childResult})
				mu.Unlock()
			}(cand)
		}
		wg.Wait()
		c.levels.Release(level)
	}

	for _, oc := range outcomes {
		newlyScored[oc.uci] = -oc.res.Score
		pv := append([]string{oc.uci}, oc.res.PV...)
		minicache[oc.uci] = pv
		if oc.res.MaxLevel > maxLevel {
			maxLevel = oc.res.MaxLevel
		}
	}
	for _, cand := range candidates {
		if cand.eligible || !cand.hasScore {
			continue
		}
		if _, already := newlyScored[cand.uci]; already {
			continue
		}
		newlyScored[cand.uci] = cand.score
		minicache[cand.uci] = []string{cand.uci}
	}

	if skipTTChan != nil {
		skipResult := <-skipTTChan
		if skipResult.Valid {
			for uci, s := range skipResult.Moves {
				existing, written := newlyScored[uci]
				if !written {
					newlyScored[uci] = s
					minicache[uci] = []string{uci}
					continue
				}
				if existing != s {
					pos.Push(moveFromUci(legalMoves, uci))
					childEpd := pos.Epd()
					pos.Pop()
					if _, inTT := c.tt.Get(childEpd); !inTT {
						newlyScored[uci] = s
						minicache[uci] = []string{uci}
					}
				}
			}
		}
	}

	c.tt.Set(epd, tt.Entry{Depth: depth, Moves: newlyScored})

	bestMove, bestSc, ok := pickBestOrdered(legalMoves, newlyScored, minicache)
	if !ok {
		return Result{Score: 0, PV: []string{}, MaxLevel: maxLevel}
	}
	pv := minicache[bestMove]
	if pv == nil {
		pv = []string{bestMove}
	}

	if depth >= config.DepthReprobePV {
		budget := c.Counters.snapshotReprobe() + int64(pos.MoveStackLen()) + int64(len(pv))
		reprobeCap := c.Counters.snapshotUncached() * int64(config.PercentReprobePV) / 100
		if budget < reprobeCap {
			rootCopy := pos.Copy()
			pvCopy := append([]string(nil), pv...)
			c.goTracked(func() { c.reprobePV(context.Background(), rootCopy, pvCopy) })
		}
	}

	if absInt(bestSc) > cdb.Special {
		bestSc -= sign(bestSc)
	}

	return Result{Score: bestSc, PV: pv, MaxLevel: maxLevel}
}

func pickBest(moves []board.Move, scored map[string]int) (string, int, bool) {
	best := ""
	bestScore := 0
	found := false
	for _, m := range moves {
		uci := m.StringUci()
		s, ok := scored[uci]
		if !ok {
			continue
		}
		if !found || s > bestScore {
			best, bestScore, found = uci, s, true
		}
	}
	return best, bestScore, found
}

func pickBestOrdered(moves []board.Move, scored map[string]int, minicache map[string][]string) (string, int, bool) {
	best := ""
	bestScore := 0
	bestLen := -1
	found := false
	for _, m := range moves {
		uci := m.StringUci()
		s, ok := scored[uci]
		if !ok {
			continue
		}
		l := len(minicache[uci])
		if l == 0 {
			l = 1
		}
		if !found || s > bestScore || (s == bestScore && l > bestLen) {
			best, bestScore, bestLen, found = uci, s, l, true
		}
	}
	return best, bestScore, found
}

func bestWorst(scored map[string]int) (best, worst int) {
	first := true
	for _, s := range scored {
		if first {
			best, worst = s, s
			first = false
			continue
		}
		if s > best {
			best = s
		}
		if s < worst {
			worst = s
		}
	}
	return best, worst
}

func moveFromUci(moves []board.Move, uci string) board.Move {
	for _, m := range moves {
		if m.StringUci() == uci {
			return m
		}
	}
	return board.MoveNone
}
