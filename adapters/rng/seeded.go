// Package rng hands out reproducible random streams to replicate workers.
package rng

import (
	"context"
	"math/rand"
	"time"
)

// SeededStreams implements ports.RNGPort. Streams are keyed by name so that
// workers sharing a base seed still draw independent sequences.
type SeededStreams struct{}

// New returns a stream source.
func New() *SeededStreams {
	return &SeededStreams{}
}

// SeededStream creates a deterministic generator for (name, seed).
func (s *SeededStreams) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed + int64(hashString(name)))), nil
}

// BaseSeed returns seed, or a time-derived seed when seed is zero.
func BaseSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
