// Package cdb is the HTTP client for chessdb.cn's cloud database API. It
// implements the queryall/queue/querypv/clearlimit primitives and the
// status-driven retry state machine that absorbs rate limiting, unknown
// positions and transient failures.
package cdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/op/go-logging"

	"github.com/cdbsearch/cdbsearch/internal/config"
	clog "github.com/cdbsearch/cdbsearch/internal/logging"
)

// Score sentinels, per the remote service's convention.
const (
	Mate    = 100000
	Special = 10000
	Cursed  = 20000
	TBWin   = 25000
	Egtb    = 7
	Sieved  = 5
)

const (
	initialTimeout = 5 * time.Second
	maxTimeout     = 60 * time.Second
	backoffFactor  = 1.5
)

// ScoredMove is a single move and its centipawn score as returned by queryall.
type ScoredMove struct {
	UCI   string
	Score int
}

// ScoredMoves is a queryall result: validity is an explicit field, never
// folded into the move map, and it carries no search depth (that lives in
// the transposition table's entry). A Valid result with an empty Moves
// map means "position known to CDB but has no scored moves"
// (checkmate/stalemate leaf); !Valid means "invalid board".
type ScoredMoves struct {
	Valid bool
	Moves map[string]int
}

// Client talks to one CDB HTTP endpoint, funnelling every call through a
// shared retryable HTTP client. It has no mutable search state of its own;
// the engine wraps it with the transposition table and counters.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *retryablehttp.Client
	log        *logging.Logger
}

// NewClient builds a Client for the given endpoint, using user (when
// non-empty) as the User-Agent suffix.
func NewClient(endpoint, user string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0 // the CDB status state machine owns all retry decisions
	rc.Logger = nil

	ua := "cdbsearch"
	if user != "" {
		ua = "cdbsearch/" + user
	}

	return &Client{
		endpoint:   endpoint,
		userAgent:  ua,
		httpClient: rc,
		log:        clog.GetLog(),
	}
}

type apiResponse struct {
	Status string           `json:"status"`
	Moves  []rawScoredMove  `json:"moves"`
	PV     []string         `json:"pv"`
	Ply    json.RawMessage  `json:"ply"`
}

type rawScoredMove struct {
	UCI   string `json:"uci"`
	Score int    `json:"score"`
}

// apicall performs one GET against the endpoint with the given query
// parameters, acquiring workSem for the duration of the request. It
// returns the parsed JSON body, or an error for network/decode failures
// -- callers decide whether to retry.
func (c *Client) apicall(ctx context.Context, workSem Semaphore, params url.Values) (*apiResponse, error) {
	if err := workSem.Acquire(ctx); err != nil {
		return nil, err
	}
	defer workSem.Release()

	u := c.endpoint + "?" + params.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return &apiResponse{}, nil
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("cdb: malformed json response: %w", err)
	}
	return &parsed, nil
}

// Semaphore is the subset of golang.org/x/sync/semaphore.Weighted used
// by the protocol adapter, narrowed so tests can supply a fake.
type Semaphore interface {
	Acquire(ctx context.Context) error
	Release()
}

// LegalMovesFunc resolves the legal UCI moves of a position, used to
// manufacture a neutral result when the remote database has nothing
// cached for a newly enqueued position.
type LegalMovesFunc func() []string

// QueryAll fetches the scored moves for epd, absorbing rate limiting,
// unknown-position enqueueing and transient failures with exponential
// backoff. skipTT requests the CDB-side cache bypass used by the PV
// reprobe and the high-depth completeness probe.
//
// onEnqueue is invoked at most once, the first time the position is
// discovered unknown to the remote database (callers use it to bump
// their enqueued counter).
func (c *Client) QueryAll(ctx context.Context, workSem Semaphore, epd string, skipTT bool, cursedWins bool, legalMoves LegalMovesFunc, onEnqueue func()) (ScoredMoves, error) {
	timeout := initialTimeout
	enqueuedOnce := false

	for {
		params := url.Values{}
		params.Set("action", "queryall")
		params.Set("board", epd)
		params.Set("json", "1")
		if skipTT {
			params.Set("skipTT", "1")
		}

		resp, err := c.apicall(ctx, workSem, params)
		if err != nil {
			if ctx.Err() != nil {
				return ScoredMoves{}, ctx.Err()
			}
			c.log.Warningf("cdb: queryall transport error for %s: %v (retry in %s)", epd, err, timeout)
			if !sleepBackoff(ctx, &timeout) {
				return ScoredMoves{}, ctx.Err()
			}
			continue
		}

		switch resp.Status {
		case "ok":
			moves := make(map[string]int, len(resp.Moves))
			for _, m := range resp.Moves {
				s := m.Score
				abs := s
				if abs < 0 {
					abs = -abs
				}
				if abs >= Special && !cursedWins && abs <= Cursed {
					s = 0
				} else {
					s += sign(s)
				}
				moves[m.UCI] = s
			}
			return ScoredMoves{Valid: true, Moves: moves}, nil

		case "checkmate", "stalemate":
			return ScoredMoves{Valid: true, Moves: map[string]int{}}, nil

		case "invalid board":
			return ScoredMoves{Valid: false}, nil

		case "unknown":
			if !enqueuedOnce {
				enqueuedOnce = true
				if onEnqueue != nil {
					onEnqueue()
				}
			}
			qparams := url.Values{}
			qparams.Set("action", "queue")
			qparams.Set("board", epd)
			qparams.Set("json", "1")
			qresp, qerr := c.apicall(ctx, workSem, qparams)
			if qerr == nil && qresp != nil && qresp.Status == "" && len(qresp.Moves) == 0 && qresp.PV == nil {
				// queue returned {} : manufacture a neutral result.
				moves := make(map[string]int)
				if legalMoves != nil {
					for _, m := range legalMoves() {
						moves[m] = 1
					}
				}
				return ScoredMoves{Valid: true, Moves: moves}, nil
			}
			if !sleepBackoff(ctx, &timeout) {
				return ScoredMoves{}, ctx.Err()
			}
			continue

		case "rate limit exceeded":
			c.ClearLimit(ctx, workSem)
			continue

		default:
			c.log.Debugf("cdb: queryall unexpected status %q for %s, retrying", resp.Status, epd)
			if !sleepBackoff(ctx, &timeout) {
				return ScoredMoves{}, ctx.Err()
			}
			continue
		}
	}
}

// Queue requests that chessdb.cn analyze and cache epd. It is fire-and-forget
// from the engine's point of view; callers typically don't wait on the result.
func (c *Client) Queue(ctx context.Context, workSem Semaphore, epd string) error {
	params := url.Values{}
	params.Set("action", "queue")
	params.Set("board", epd)
	params.Set("json", "1")
	_, err := c.apicall(ctx, workSem, params)
	return err
}

// QueryPV fetches the remote engine's own principal variation for epd.
func (c *Client) QueryPV(ctx context.Context, workSem Semaphore, epd string) ([]string, error) {
	timeout := initialTimeout
	for {
		params := url.Values{}
		params.Set("action", "querypv")
		params.Set("board", epd)
		params.Set("json", "1")

		resp, err := c.apicall(ctx, workSem, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !sleepBackoff(ctx, &timeout) {
				return nil, ctx.Err()
			}
			continue
		}
		switch resp.Status {
		case "ok":
			return resp.PV, nil
		case "unknown", "checkmate", "stalemate", "invalid board":
			return nil, nil
		case "rate limit exceeded":
			c.ClearLimit(ctx, workSem)
			continue
		default:
			if !sleepBackoff(ctx, &timeout) {
				return nil, ctx.Err()
			}
			continue
		}
	}
}

// ClearLimit asks the remote service to lift a rate limit on this client.
func (c *Client) ClearLimit(ctx context.Context, workSem Semaphore) {
	params := url.Values{}
	params.Set("action", "clearlimit")
	_, _ = c.apicall(ctx, workSem, params)
}

// sleepBackoff sleeps for the current timeout (or returns false if ctx is
// done first), then grows timeout by backoffFactor up to maxTimeout.
func sleepBackoff(ctx context.Context, timeout *time.Duration) bool {
	t := *timeout
	select {
	case <-time.After(t):
	case <-ctx.Done():
		return false
	}
	next := time.Duration(float64(t) * backoffFactor)
	if next > maxTimeout {
		next = maxTimeout
	}
	*timeout = next
	return true
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

// DefaultEndpoint returns the configured CDB endpoint, falling back to
// chessdb.cn's public one.
func DefaultEndpoint() string {
	if config.Settings.Cdb.Endpoint == "" {
		return "http://www.chessdb.cn/cdb.php"
	}
	return config.Settings.Cdb.Endpoint
}
