// meta/meta.go
package meta

// GO_ROUTINES defines the number of goroutines to use.
const GO_ROUTINES = 8

// EPISODES defines the number of episodes for MCTS.
const EPISODES = 150

// WITH_CUTOFF defines the rollout depth after which a state is evaluated
// instead of played out.
const WITH_CUTOFF = 100

// MAX_TURNS bounds the length of a local match.
const MAX_TURNS = 300

// MAX_CHUNK_COST caps the summed cost of one compiled chunk. An instruction
// costs one plus its operand count.
const MAX_CHUNK_COST = 8192

// CACHE_SIZE is the default number of entries per cached query.
const CACHE_SIZE = 4096

// DEPTH_CHARGE_LIMIT bounds a random playout.
const DEPTH_CHARGE_LIMIT = 10000
