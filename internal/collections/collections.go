// Package collections defines the canonical document collections for scoutd.
//
// A collection is a named, independently queryable partition of the embedding
// index. Every search targets exactly one collection; cross-collection
// searches are issued as multiple calls by the caller.
//
// The canonical fantasy-basketball collections are "players", "strategies",
// and "trades", but any name matching the validation pattern is accepted so
// deployments can add their own partitions (e.g., "waiver_wire").
package collections

import (
	"errors"
	"fmt"
	"regexp"
)

// Canonical collection names.
const (
	// Players holds embedded player profiles: name, position, ADP,
	// per-category production notes.
	Players = "players"

	// Strategies holds embedded draft and roster strategy write-ups
	// (punting, streaming, category builds).
	Strategies = "strategies"

	// Trades holds embedded trade analyses and historical trade outcomes.
	Trades = "trades"
)

// ErrInvalidName indicates a collection name that fails validation.
var ErrInvalidName = errors.New("invalid collection name")

// namePattern restricts names to lowercase letters, numbers, and
// underscores, 1-64 characters. Rejects uppercase, path separators, spaces.
var namePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// Canonical returns the canonical collection names in a stable order.
func Canonical() []string {
	return []string{Players, Strategies, Trades}
}

// IsCanonical reports whether name is one of the canonical collections.
func IsCanonical(name string) bool {
	switch name {
	case Players, Strategies, Trades:
		return true
	}
	return false
}

// Validate checks a collection name against the naming rules.
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: name must match ^[a-z0-9_]{1,64}$, got %q", ErrInvalidName, name)
	}
	return nil
}
