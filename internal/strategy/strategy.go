// Package strategy defines the Strategy interface for trading strategies, a
// Registry for looking them up by name, and the Backtester that replays
// historical bars through a strategy against a simulated account.
package strategy

import (
	"context"
	"sort"

	"demacross/internal/domain"
)

// Strategy is the interface that all trading strategies must implement.
// A strategy receives the full bar history up front, is stepped through it
// one bar at a time, and is notified of every order state transition.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Init performs one-time setup over the complete bar series before the
	// replay begins, typically precomputing indicator values.
	Init(ctx context.Context, bars []domain.Bar) error

	// OnBar is called once per bar in chronological order with the account
	// state as of that bar. It returns an order to submit, or nil when the
	// bar produces no action.
	OnBar(ctx context.Context, i int, bar domain.Bar, acct *domain.AccountSnapshot) (*domain.Order, error)

	// OnOrderEvent is called synchronously on every order state transition:
	// submitted, accepted, filled, or canceled.
	OnOrderEvent(ev domain.OrderEvent)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
