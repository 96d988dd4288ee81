package engine

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cdbsearch/cdbsearch/internal/board"
)

// reportPrinter formats the large counters in a Report.String() with
// thousands separators, the same locale-aware printer the original
// command-line front-end used for its own console output.
var reportPrinter = message.NewPrinter(language.German)

// Report is one iteration of the driver's output stream: the result of
// the search at a given depth plus the counters and timings a caller
// needs to render the machine-parsable progress line.
type Report struct {
	Depth           int
	Score           int
	PV              []string
	PVLen           int
	Level           int
	MaxLevel        int
	QueryAll        int64
	BranchingFactor float64
	ChessDBQ        int64
	Enqueued        int64
	Requeued        int64
	Unscored        int64
	Reprobed        int64
	InflightQ       float64
	InflightR       float64
	CdbTimeMs       int64
	TotalTimeMs     int64
	URL             string

	// MateProven is set only when ProveMates is on and this iteration's PV
	// ends in "checkmate"; nil otherwise.
	MateProven *bool
}

// Run executes the iterative-deepening driver (C9): it seeds the CDB's own
// PV at the start of every outer iteration, searches at increasing depth,
// schedules a reprobe of the returned PV, reports the iteration, and stops
// on a terminal PV, the EGTB short-circuit, or the configured depth limit.
//
// rootEpd is the original FEN/EPD supplied by the caller, before pos was
// advanced through playedMoves -- it is used only to render the reporting
// URL the way chessdb.cn's own web viewer expects it.
func (c *ChessDB) Run(ctx context.Context, pos *board.Board, rootEpd string, playedMoves []string) <-chan Report {
	out := make(chan Report)
	go func() {
		defer close(out)
		defer c.Shutdown()

		start := time.Now()
		for depth := 1; c.opts.DepthLimit == 0 || depth <= c.opts.DepthLimit; depth++ {
			c.seedCdbPV(ctx, pos)

			rootDepth := depth
			result := c.search(ctx, pos.Copy(), depth, 0, rootDepth)

			reprobeRoot := pos.Copy()
			reprobePV := append([]string(nil), result.PV...)
			c.goTracked(func() { c.reprobePV(context.Background(), reprobeRoot, reprobePV) })

			report := c.buildReport(depth, result, rootEpd, playedMoves, start)

			if c.opts.ProveMates && len(result.PV) > 0 && result.PV[len(result.PV)-1] == "checkmate" {
				proven := c.proveMate(ctx, pos.Copy(), result.PV)
				report.MateProven = &proven
			}

			select {
			case out <- report:
			case <-ctx.Done():
				return
			}

			if pvExhausted(result.PV) {
				return
			}
		}
	}()
	return out
}

// pvExhausted reports whether a returned PV gives the driver nothing
// further to search: it is empty, or it is at most two entries long and
// ends in a terminal sentinel (a bare sentinel, or a single move followed
// by "checkmate", "draw", "invalid" or "EGTB").
func pvExhausted(pv []string) bool {
	if len(pv) == 0 {
		return true
	}
	last := pv[len(pv)-1]
	return isTerminalMarker(last) && len(pv) <= 2
}

func (c *ChessDB) buildReport(depth int, result Result, rootEpd string, playedMoves []string, start time.Time) Report {
	snap := c.Counters.Snapshot()
	queryAll := snap.QueryAll
	uncached := snap.Uncached

	var bf float64
	if queryAll > 0 && depth > 0 {
		bf = math.Exp(math.Log(float64(queryAll)) / float64(depth))
	}

	var inflightQ float64
	if queryAll > 0 {
		inflightQ = float64(snap.SumInflightRequests) / float64(queryAll)
	}
	var inflightR float64
	if uncached > 0 {
		inflightR = float64(snap.SumInflightUncached) / float64(uncached)
	}

	totalMs := time.Since(start).Milliseconds()
	var cdbMs int64
	if uncached > 0 {
		cdbMs = totalMs / uncached
	}

	return Report{
		Depth:           depth,
		Score:           result.Score,
		PV:              result.PV,
		PVLen:           len(result.PV),
		Level:           0,
		MaxLevel:        result.MaxLevel,
		QueryAll:        queryAll,
		BranchingFactor: bf,
		ChessDBQ:        uncached,
		Enqueued:        snap.Enqueued,
		Requeued:        snap.Requeued,
		Unscored:        snap.Unscored,
		Reprobed:        snap.ReprobeQueryall,
		InflightQ:       inflightQ,
		InflightR:       inflightR,
		CdbTimeMs:       cdbMs,
		TotalTimeMs:     totalMs,
		URL:             reportURL(rootEpd, playedMoves, result.PV),
	}
}

// reportURL renders the chessdb.cn web-viewer URL for the played moves
// followed by the moves found along the PV, skipping the terminal
// sentinels ("checkmate", "draw", "invalid", "EGTB") since they aren't
// moves the viewer understands.
func reportURL(rootEpd string, playedMoves []string, pv []string) string {
	var line []string
	line = append(line, playedMoves...)
	for _, m := range pv {
		if !isTerminalMarker(m) {
			line = append(line, m)
		}
	}
	u := "https://chessdb.cn/queryc_en/?" + rootEpd
	if len(line) > 0 {
		u += " moves " + strings.Join(line, " ")
	}
	return strings.ReplaceAll(u, " ", "_")
}

// String renders a report the way the original command-line search
// printed one iteration, for callers that just want a readable log line.
func (r Report) String() string {
	var b strings.Builder
	reportPrinter.Fprintf(&b, "Search at depth %d\n", r.Depth)
	reportPrinter.Fprintf(&b, "  score     : %d\n", r.Score)
	reportPrinter.Fprintf(&b, "  PV        : %s\n", strings.Join(r.PV, " "))
	if r.QueryAll > 0 {
		reportPrinter.Fprintf(&b, "  queryall  : %d\n", r.QueryAll)
		reportPrinter.Fprintf(&b, "  bf        : %.2f\n", r.BranchingFactor)
		reportPrinter.Fprintf(&b, "  inflightQ : %.2f\n", r.InflightQ)
		reportPrinter.Fprintf(&b, "  inflightR : %.2f\n", r.InflightR)
		reportPrinter.Fprintf(&b, "  chessdbq  : %d\n", r.ChessDBQ)
		reportPrinter.Fprintf(&b, "  enqueued  : %d\n", r.Enqueued)
		reportPrinter.Fprintf(&b, "  requeued  : %d\n", r.Requeued)
		reportPrinter.Fprintf(&b, "  unscored  : %d\n", r.Unscored)
		reportPrinter.Fprintf(&b, "  reprobed  : %d\n", r.Reprobed)
		reportPrinter.Fprintf(&b, "  total time: %d\n", r.TotalTimeMs)
		reportPrinter.Fprintf(&b, "  req. time : %d\n", r.CdbTimeMs)
	}
	if r.MateProven != nil {
		if *r.MateProven {
			reportPrinter.Fprintf(&b, "  mate      : CHECKMATE\n")
		} else {
			reportPrinter.Fprintf(&b, "  mate      : checkmate\n")
		}
	}
	reportPrinter.Fprintf(&b, "  URL       : %s\n", r.URL)
	return b.String()
}
