// Package portfolio groups named positions and aggregates their value.
package portfolio

import (
	"errors"
	"fmt"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/position"
)

var (
	// ErrDuplicateName is returned when a position name is already taken.
	ErrDuplicateName = errors.New("duplicate position name")

	// ErrNotFound is returned when no position has the requested name.
	ErrNotFound = errors.New("position not found")

	// ErrInvalidName is returned when a position cannot be addressed by name.
	ErrInvalidName = errors.New("invalid position name")
)

// Portfolio holds positions addressable by unique name, preserving insertion
// order for iteration and snapshots. It is not safe for concurrent use;
// a backtest drives exactly one portfolio from one goroutine.
type Portfolio struct {
	names     []string
	positions map[string]position.Position
}

// New creates an empty portfolio.
func New() *Portfolio {
	return &Portfolio{positions: make(map[string]position.Position)}
}

// Append adds a position under its own name.
func (p *Portfolio) Append(pos position.Position) error {
	name := pos.Name()
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if _, ok := p.positions[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	p.positions[name] = pos
	p.names = append(p.names, name)
	return nil
}

// Remove deletes the position with the given name and returns it.
func (p *Portfolio) Remove(name string) (position.Position, error) {
	pos, ok := p.positions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(p.positions, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	return pos, nil
}

// Get returns the position with the given name.
func (p *Portfolio) Get(name string) (position.Position, error) {
	pos, ok := p.positions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return pos, nil
}

// Has reports whether a position with the given name exists.
func (p *Portfolio) Has(name string) bool {
	_, ok := p.positions[name]
	return ok
}

// Len returns the number of positions.
func (p *Portfolio) Len() int { return len(p.names) }

// Positions returns the positions in insertion order.
func (p *Portfolio) Positions() []position.Position {
	out := make([]position.Position, 0, len(p.names))
	for _, name := range p.names {
		out = append(out, p.positions[name])
	}
	return out
}

// Amounts returns the summed token amounts across all positions.
func (p *Portfolio) Amounts(price float64) (x, y float64, err error) {
	for _, name := range p.names {
		px, py, err := p.positions[name].Amounts(price)
		if err != nil {
			return 0, 0, fmt.Errorf("position %q: %w", name, err)
		}
		x += px
		y += py
	}
	return x, y, nil
}

// ValueInX returns the portfolio value denominated in X, net of accumulated
// transaction costs.
func (p *Portfolio) ValueInX(price float64) (float64, error) {
	var total float64
	for _, name := range p.names {
		pos := p.positions[name]
		v, err := pos.ValueInX(price)
		if err != nil {
			return 0, fmt.Errorf("position %q: %w", name, err)
		}
		total += v - pos.TxCosts()/price
	}
	return total, nil
}

// ValueInY returns the portfolio value denominated in Y, net of accumulated
// transaction costs.
func (p *Portfolio) ValueInY(price float64) (float64, error) {
	var total float64
	for _, name := range p.names {
		pos := p.positions[name]
		v, err := pos.ValueInY(price)
		if err != nil {
			return 0, fmt.Errorf("position %q: %w", name, err)
		}
		total += v - pos.TxCosts()
	}
	return total, nil
}

// Snapshot captures every position plus cost-adjusted totals at the given
// timestamp and price.
func (p *Portfolio) Snapshot(timestamp int64, price float64) (domain.PortfolioSnapshot, error) {
	snap := domain.PortfolioSnapshot{
		Timestamp: timestamp,
		Price:     price,
		Positions: make([]domain.PositionSnapshot, 0, len(p.names)),
	}
	for _, name := range p.names {
		ps, err := p.positions[name].Snapshot(price)
		if err != nil {
			return domain.PortfolioSnapshot{}, fmt.Errorf("position %q: %w", name, err)
		}
		snap.Positions = append(snap.Positions, ps)
		snap.TotalValueToX += ps.ValueX + ps.ValueY/price - ps.TxCosts/price
		snap.TotalValueToY += ps.ValueX*price + ps.ValueY - ps.TxCosts
	}
	return snap, nil
}
