package montecarlo

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// subSeed derives iteration k's sub-seed from the run's master seed
// string by hashing the seed's UTF-8 bytes followed by k's big-endian
// uint64 encoding with FNV-1a. This makes per-iteration RNGs
// independent of scheduling: any goroutine can construct iteration
// k's generator at any time and get the same stream.
func subSeed(masterSeed string, k int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(masterSeed))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(k))
	h.Write(buf[:])
	return h.Sum64()
}

// rngForIteration builds the deterministic per-iteration RNG. When
// masterSeed is nil the run is nondeterministic (each call seeds from
// the runtime's default source), matching spec.md's "absence means
// nondeterministic" seed semantics.
func rngForIteration(masterSeed *string, k int) *rand.Rand {
	if masterSeed == nil {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return rand.New(rand.NewSource(int64(subSeed(*masterSeed, k))))
}
