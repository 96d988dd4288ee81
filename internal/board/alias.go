package board

import "github.com/cdbsearch/cdbsearch/internal/types"

// Move and MoveNone re-export the types package's move representation so
// that callers outside this package (the engine) can spell them as
// board.Move / board.MoveNone instead of reaching into internal/types
// directly; everything else the engine needs travels through *Board.
type Move = types.Move

// MoveNone re-exports the types package's zero-move sentinel.
const MoveNone = types.MoveNone
