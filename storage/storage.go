// Package storage persists the clauses of persistent predicates.
package storage

import (
	"context"
	"fmt"
)

// PredicateState is a presentation of a persistent predicate as
// stored in a Storage system.
type PredicateState struct {
	Name  string `json:"name"`
	Arity int    `json:"arity"`

	// Clauses are the clauses in canonical text, each ending with
	// a period.
	Clauses []string `json:"clauses"`

	// Deleted indicates that this predicate has been abolished.
	Deleted bool `json:"-" yaml:"-"`
}

// Key is the predicate's indicator as text: name/arity.
func (ps *PredicateState) Key() string {
	return fmt.Sprintf("%s/%d", ps.Name, ps.Arity)
}

// Storage is a persistence interface for the persistent predicates
// of modules.
type Storage interface {
	MakeModule(ctx context.Context, module string) error

	RemModule(ctx context.Context, module string) error

	GetClauses(ctx context.Context, module string) ([]*PredicateState, error)

	WriteClauses(ctx context.Context, module string, ps []*PredicateState) error
}
