// Package idhash computes deterministic identifiers for backtest runs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(strategy|pool|from|to)
// Returns hex-encoded hash (64 characters). Two runs of the same strategy
// over the same pool and time range share an ID, so re-running a backtest
// addresses the same history rows.
func ComputeRunID(strategy, pool string, from, to int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", strategy, pool, from, to)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
