package config

// cdbConfiguration holds the tunables of the chessdb.cn exploring search:
// concurrency bounds, the decay-based reduction policy and the selective
// extensions, and the optional mate-proving sub-procedure.
type cdbConfiguration struct {
	// DepthLimit bounds iterative deepening; 0 means unbounded (search until
	// a terminal PV is found).
	DepthLimit int

	// Concurrency is the capacity of the global HTTP work semaphore.
	Concurrency int

	// EvalDecay is the cp-per-ply budget used to convert a move's score
	// deficit into a depth reduction. 0 means strict PV-only search.
	EvalDecay int

	// CursedWins treats tablebase wins broken by the 50-move rule as wins
	// instead of rewriting them to a neutral score.
	CursedWins bool

	// TBSearch continues the search into endgame-tablebase positions
	// instead of taking the tablebase short-circuit.
	TBSearch bool

	// ProveMates runs the mate prover on a top-level PV ending in checkmate.
	ProveMates bool

	// User is appended to the User-Agent sent to chessdb.cn.
	User string

	// Endpoint is the base URL of the CDB HTTP API.
	Endpoint string
}

// Tuning constants fixed by the selective search policy. These are not
// exposed via the config file since they encode the shape of the policy
// itself rather than a deployment knob.
const (
	// DepthAllowExts is the depth the node's depth must exceed for the
	// unique-best-move extension to fire.
	DepthAllowExts = 4

	// DepthMaxExtension bounds how many plies past the root depth the
	// selective extensions may push the search.
	DepthMaxExtension = 10

	// DepthForceQuery is the depth above which an incompletely scored
	// position triggers a skip-TT requery race.
	DepthForceQuery = 10

	// DepthUnscored forces scheduling of one unscored move once the
	// depth-to-scoredCount gap exceeds this.
	DepthUnscored = 25

	// DepthReprobePV is the minimum depth at which a chosen PV is eligible
	// for asynchronous reprobing back to the root.
	DepthReprobePV = 16

	// PercentReprobePV caps the reprobe budget as a percentage of total
	// uncached queryalls issued so far.
	PercentReprobePV = 1
)

// sets defaults which might be overwritten by config file or cmd line.
func init() {
	Settings.Cdb.DepthLimit = 0
	Settings.Cdb.Concurrency = 16
	Settings.Cdb.EvalDecay = 2
	Settings.Cdb.CursedWins = false
	Settings.Cdb.TBSearch = false
	Settings.Cdb.ProveMates = false
	Settings.Cdb.User = ""
	Settings.Cdb.Endpoint = "http://www.chessdb.cn/cdb.php"
}

// setupCdb fills in any cdb settings not supplied by the config file.
func setupCdb() {
	if Settings.Cdb.Concurrency <= 0 {
		Settings.Cdb.Concurrency = 16
	}
	if Settings.Cdb.Endpoint == "" {
		Settings.Cdb.Endpoint = "http://www.chessdb.cn/cdb.php"
	}
}
