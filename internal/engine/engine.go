// Package engine is the concurrent best-first tree search that explores
// and extends chessdb.cn's cloud database: the selective-search policy,
// its transposition table, PV reprobing, CDB-PV seeding and the optional
// mate prover, wired together per search invocation by a ChessDB value.
package engine

import (
	"sync"

	"github.com/op/go-logging"

	"github.com/cdbsearch/cdbsearch/internal/board"
	"github.com/cdbsearch/cdbsearch/internal/cdb"
	"github.com/cdbsearch/cdbsearch/internal/config"
	"github.com/cdbsearch/cdbsearch/internal/governor"
	clog "github.com/cdbsearch/cdbsearch/internal/logging"
	"github.com/cdbsearch/cdbsearch/internal/tt"
)

// Options configures one ChessDB search invocation. It mirrors the
// caller-supplied configuration in internal/config.Settings.Cdb, so a
// command-line front-end only needs to translate flags into this struct.
type Options struct {
	DepthLimit  int
	Concurrency int
	EvalDecay   int
	CursedWins  bool
	TBSearch    bool
	ProveMates  bool
	User        string
	Endpoint    string
}

// OptionsFromConfig builds Options from the globally loaded configuration.
func OptionsFromConfig() Options {
	c := config.Settings.Cdb
	return Options{
		DepthLimit:  c.DepthLimit,
		Concurrency: c.Concurrency,
		EvalDecay:   c.EvalDecay,
		CursedWins:  c.CursedWins,
		TBSearch:    c.TBSearch,
		ProveMates:  c.ProveMates,
		User:        c.User,
		Endpoint:    c.Endpoint,
	}
}

// ChessDB owns everything shared across the concurrent branches of one
// root search: the transposition table, the CDB-PV-to-leaf distances, the
// concurrency governors, the shared counters and the HTTP client. It is
// constructed once per root search and torn down when the driver returns.
type ChessDB struct {
	opts   Options
	client *cdb.Client
	tt     *tt.Table
	work   *governor.WorkSem
	levels *governor.LevelSemaphores

	pvMu        sync.Mutex
	cdbPvToLeaf map[string]int

	Counters *Counters
	log      *logging.Logger

	// inflight tracks fire-and-forget goroutines (reprobe, seeding,
	// requeue, mate-prover probes) so shutdown can wait for them instead
	// of tearing down the HTTP client mid-request.
	inflight sync.WaitGroup
}

// NewChessDB constructs a ChessDB ready to run iterative deepening.
func NewChessDB(opts Options) *ChessDB {
	if opts.Concurrency < 1 {
		opts.Concurrency = 16
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = cdb.DefaultEndpoint()
	}
	return &ChessDB{
		opts:        opts,
		client:      cdb.NewClient(endpoint, opts.User),
		tt:          tt.New(),
		work:        governor.NewWorkSem(opts.Concurrency),
		levels:      governor.NewLevelSemaphores(4 * opts.Concurrency),
		cdbPvToLeaf: make(map[string]int),
		Counters:    &Counters{},
		log:         clog.GetSearchLog(),
	}
}

// Shutdown waits for every fire-and-forget goroutine spawned by this
// ChessDB to finish before returning, so the underlying HTTP session is
// never torn down mid-request.
func (c *ChessDB) Shutdown() { c.inflight.Wait() }

// goTracked runs f in a new goroutine, tracked by the shutdown wait group.
func (c *ChessDB) goTracked(f func()) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		f()
	}()
}

func (c *ChessDB) pvToLeaf(epd string) (int, bool) {
	c.pvMu.Lock()
	defer c.pvMu.Unlock()
	v, ok := c.cdbPvToLeaf[epd]
	return v, ok
}

func (c *ChessDB) setPvToLeaf(epd string, distance int) {
	c.pvMu.Lock()
	defer c.pvMu.Unlock()
	c.cdbPvToLeaf[epd] = distance
}

// legalUCIMoves adapts a board's legal moves into the UCI-string slice
// the CDB protocol adapter needs to manufacture a neutral result for a
// freshly-enqueued position.
func legalUCIMoves(pos *board.Board) []string {
	moves := pos.LegalMoves()
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.StringUci()
	}
	return out
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
