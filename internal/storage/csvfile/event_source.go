// Package csvfile reads pool events from CSV exports, a read-only
// storage.PoolEventStore for running backtests without a database.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

/*
CSV layout

pool,block,tx_hash,log_index,timestamp,kind,price_before,price,lower_price,upper_price,liquidity,amount_x,amount_y,owner

Notes:
- the first row must be the header above
- kind = mint | burn | swap
- numeric fields are plain decimal, empty cells read as 0
*/

// EventSource is a read-only storage.PoolEventStore backed by a CSV file.
// The file is loaded once at construction.
type EventSource struct {
	events []*domain.PoolEvent
}

// NewEventSource loads the CSV file at path.
func NewEventSource(path string) (*EventSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events csv: %w", err)
	}
	defer f.Close()

	events, err := parseEvents(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &EventSource{events: events}, nil
}

// Compile-time interface check.
var _ storage.PoolEventStore = (*EventSource)(nil)

// Insert is not supported; the source is read-only.
func (s *EventSource) Insert(_ context.Context, _ *domain.PoolEvent) error {
	return fmt.Errorf("%w: csv event source is read-only", storage.ErrInvalidInput)
}

// InsertBulk is not supported; the source is read-only.
func (s *EventSource) InsertBulk(_ context.Context, _ []*domain.PoolEvent) error {
	return fmt.Errorf("%w: csv event source is read-only", storage.ErrInvalidInput)
}

// GetByPool retrieves all loaded events for a pool in file order.
func (s *EventSource) GetByPool(_ context.Context, pool string) ([]*domain.PoolEvent, error) {
	var result []*domain.PoolEvent
	for _, e := range s.events {
		if e.Pool == pool {
			dup := *e
			result = append(result, &dup)
		}
	}
	return result, nil
}

// GetByTimeRange retrieves events for a pool within [start, end] (inclusive).
func (s *EventSource) GetByTimeRange(_ context.Context, pool string, start, end int64) ([]*domain.PoolEvent, error) {
	var result []*domain.PoolEvent
	for _, e := range s.events {
		if e.Pool == pool && e.Timestamp >= start && e.Timestamp <= end {
			dup := *e
			result = append(result, &dup)
		}
	}
	return result, nil
}

// Len returns the number of loaded events.
func (s *EventSource) Len() int { return len(s.events) }

var header = []string{
	"pool", "block", "tx_hash", "log_index", "timestamp", "kind",
	"price_before", "price", "lower_price", "upper_price", "liquidity",
	"amount_x", "amount_y", "owner",
}

func parseEvents(r io.Reader) ([]*domain.PoolEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		if head[i] != col {
			return nil, fmt.Errorf("column %d: expected %q, got %q", i, col, head[i])
		}
	}

	var events []*domain.PoolEvent
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		e, err := parseEvent(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func parseEvent(record []string) (*domain.PoolEvent, error) {
	e := &domain.PoolEvent{
		Pool:   record[0],
		TxHash: record[2],
		Kind:   domain.EventKind(record[5]),
		Owner:  record[13],
	}
	if e.Pool == "" {
		return nil, fmt.Errorf("empty pool")
	}
	switch e.Kind {
	case domain.EventMint, domain.EventBurn, domain.EventSwap:
	default:
		return nil, fmt.Errorf("unknown event kind %q", record[5])
	}

	var err error
	if e.Block, err = parseInt(record[1]); err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}
	logIndex, err := parseInt(record[3])
	if err != nil {
		return nil, fmt.Errorf("log_index: %w", err)
	}
	e.LogIndex = int(logIndex)
	if e.Timestamp, err = parseInt(record[4]); err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	if e.PriceBefore, err = parseFloat(record[6]); err != nil {
		return nil, fmt.Errorf("price_before: %w", err)
	}
	if e.Price, err = parseFloat(record[7]); err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	if e.LowerPrice, err = parseFloat(record[8]); err != nil {
		return nil, fmt.Errorf("lower_price: %w", err)
	}
	if e.UpperPrice, err = parseFloat(record[9]); err != nil {
		return nil, fmt.Errorf("upper_price: %w", err)
	}
	if e.Liquidity, err = parseFloat(record[10]); err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	if e.AmountX, err = parseFloat(record[11]); err != nil {
		return nil, fmt.Errorf("amount_x: %w", err)
	}
	if e.AmountY, err = parseFloat(record[12]); err != nil {
		return nil, fmt.Errorf("amount_y: %w", err)
	}
	return e, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
