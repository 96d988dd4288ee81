/*
 * FrankyGo - UCI chess engine in GO for learning purposes
 *
 * MIT License
 *
 * Copyright (c) 2018-2020 Frank Kopp
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Command cdbsearch is the thin command-line front-end around the
// exploring search engine: it parses a root FEN/EPD (optionally followed
// by the "moves ..." keyword cdb's own API uses), wires the configured
// options into a ChessDB, and prints one report per iterative
// deepening depth. Bulk orchestration across many positions, PGN/EPD file
// loading and pretty report formatting are left to whatever drives this
// binary; it only understands a single root position per invocation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/pkg/profile"

	"github.com/cdbsearch/cdbsearch/internal/board"
	"github.com/cdbsearch/cdbsearch/internal/config"
	"github.com/cdbsearch/cdbsearch/internal/engine"
	"github.com/cdbsearch/cdbsearch/internal/logging"
)

func main() {
	cpuProfile := flag.Bool("cpuprofile", false, "profile CPU usage and write cpu.pprof to the working directory")
	versionInfo := flag.Bool("version", false, "prints version and exits")
	configFile := flag.String("config", "./config.toml", "path to configuration settings file")
	logLvl := flag.String("loglvl", "", "standard log level\n(critical|error|warning|notice|info|debug)")
	searchLogLvl := flag.String("searchloglvl", "", "search log level\n(critical|error|warning|notice|info|debug)")

	epd := flag.String("epd", board.StartFEN+" moves g2g4", `EPD/FEN to explore: accepts a FEN with or without move counters, as well as the extended "moves m1 m2 m3" syntax from cdb's own API.`)
	depthLimit := flag.Int("depthLimit", 0, "finish the exploration at the given depth (0 = unbounded)")
	concurrency := flag.Int("concurrency", 16, "maximum number of requests made to chessdb.cn at the same time")
	evalDecay := flag.Int("evalDecay", 2, "depth decrease per cp eval-to-best; 0 follows PV lines only")
	cursedWins := flag.Bool("cursedWins", false, "treat cursed tablebase wins as wins instead of scoring them neutrally")
	tbSearch := flag.Bool("tbSearch", false, "continue the search into endgame-tablebase positions instead of short-circuiting")
	proveMates := flag.Bool("proveMates", false, "attempt to prove that a checkmate PV has no better defence")
	user := flag.String("user", "", "appended to the User-Agent sent to chessdb.cn")
	endpoint := flag.String("endpoint", "", "override the CDB HTTP API base URL")
	flag.Parse()

	if *versionInfo {
		printVersionInfo()
		return
	}

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	config.ConfFile = *configFile
	config.Setup()
	if *logLvl != "" {
		if lvl, found := config.LogLevels[*logLvl]; found {
			config.LogLevel = lvl
		}
	}
	if *searchLogLvl != "" {
		if lvl, found := config.LogLevels[*searchLogLvl]; found {
			config.SearchLogLevel = lvl
		}
	}
	logging.GetLog()
	logging.GetSearchLog()

	rootEpd, playedMoves := splitMoves(*epd)
	pos, err := board.ParseFEN(rootEpd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cdbsearch:", err)
		os.Exit(1)
	}
	playedMoves = applyMoves(pos, playedMoves)

	opts := engine.Options{
		DepthLimit:  *depthLimit,
		Concurrency: *concurrency,
		EvalDecay:   *evalDecay,
		CursedWins:  *cursedWins,
		TBSearch:    *tbSearch,
		ProveMates:  *proveMates,
		User:        *user,
		Endpoint:    *endpoint,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	chessdb := engine.NewChessDB(opts)
	for report := range chessdb.Run(ctx, pos, rootEpd, playedMoves) {
		fmt.Print(report.String())
		fmt.Println()
	}
}

// splitMoves separates a root EPD from cdb's own "... moves m1 m2 ..."
// suffix, the way the remote API's query string does.
func splitMoves(epd string) (root string, moves []string) {
	if idx := strings.Index(epd, " moves "); idx >= 0 {
		return strings.TrimSpace(epd[:idx]), strings.Fields(epd[idx+len(" moves "):])
	}
	return strings.TrimSpace(epd), nil
}

// applyMoves pushes each UCI move onto pos, truncating silently at the
// first move that isn't legal in the resulting position.
func applyMoves(pos *board.Board, moves []string) []string {
	applied := make([]string, 0, len(moves))
	for _, m := range moves {
		if err := pos.PushUci(m); err != nil {
			break
		}
		applied = append(applied, m)
	}
	return applied
}

func printVersionInfo() {
	fmt.Println("cdbsearch", version())
	fmt.Println("Environment:")
	fmt.Printf("  Using GO version %s\n", runtime.Version())
	fmt.Printf("  Running %s using %s as a compiler\n", runtime.GOARCH, runtime.Compiler)
	fmt.Printf("  Number of CPU: %d\n", runtime.NumCPU())
	cwd, _ := os.Getwd()
	fmt.Printf("  Working directory: %s\n", cwd)
}

func version() string { return "0.1.0" }
