package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/verdantlabs/phenocache/genetics"
)

// Keyer generates deterministic cache keys.
//
// Contract:
// - Determinism: the same genotype/environment must always produce the
//   same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// ExactKey keys the L1 tier on (genotype ID, environment).
	ExactKey(g *genetics.Genotype, env genetics.EnvironmentalSnapshot) string

	// PatternKey keys the L3 entry cache on (pattern signature, coarse
	// environment signature).
	PatternKey(signature string, env genetics.EnvironmentalSnapshot) string
}

// DefaultKeyer generates SHA-256 based exact keys and plain composite
// pattern keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// ExactKey hashes the genotype ID together with the canonical environment
// key. Format: pheno:<hash>, where hash is the first 16 hex characters of
// SHA-256("<genotype-id>\n<env-key>").
func (k *DefaultKeyer) ExactKey(g *genetics.Genotype, env genetics.EnvironmentalSnapshot) string {
	id := ""
	if g != nil {
		id = g.ID
	}
	sum := sha256.Sum256([]byte(id + "\n" + env.Key()))
	return "pheno:" + hex.EncodeToString(sum[:8])
}

// PatternKey joins the signature with the coarse environment key. The
// signature is human-readable on purpose: pattern entries are inspected
// during tuning.
func (k *DefaultKeyer) PatternKey(signature string, env genetics.EnvironmentalSnapshot) string {
	return signature + "@" + env.CoarseKey()
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
