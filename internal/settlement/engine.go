// Package settlement recomputes and persists the transfers that clear a
// group's debts.
//
// A run reads the group's expenses, derives net balances, matches debtors to
// creditors and replaces the group's unsettled records with the result. Runs
// for the same group are serialized through a Locker; runs for different
// groups share nothing.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/lock"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var (
	// ErrComputation wraps failures caused by inconsistent expense data.
	ErrComputation = errors.New("settlement computation failed")

	// ErrRetryable wraps storage and locking failures. Re-running the whole
	// recalculation is always safe.
	ErrRetryable = errors.New("settlement recalculation failed, try again")
)

// ExpenseSource lists the expenses of a group.
type ExpenseSource interface {
	ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error)
}

// Locker serializes work per key. The returned function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Engine runs the aggregate, match and replace pipeline.
type Engine struct {
	expenses ExpenseSource
	records  storage.SettlementStore
	locker   Locker
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocker replaces the default in-process lock.
func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithMetrics records every run in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine reading expenses from expenses and writing
// settlement records to records.
func NewEngine(expenses ExpenseSource, records storage.SettlementStore, opts ...Option) *Engine {
	e := &Engine{
		expenses: expenses,
		records:  records,
		locker:   lock.NewLocal(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recalculate recomputes the group's settlements from its expenses and
// replaces its unsettled records with them.
func (e *Engine) Recalculate(ctx context.Context, groupID string) ([]calculator.Transaction, error) {
	started := time.Now()

	unlock, err := e.locker.Lock(ctx, "settlement:"+groupID)
	if err != nil {
		e.metrics.ObserveRun(metrics.ResultStorageError, started, 0, false)
		return nil, fmt.Errorf("%w: lock group %s: %w", ErrRetryable, groupID, err)
	}
	defer unlock()

	expenses, err := e.expenses.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		slog.Error("Failed to load expenses", "group_id", groupID, "error", err)
		e.metrics.ObserveRun(metrics.ResultStorageError, started, 0, false)
		return nil, fmt.Errorf("%w: %w", ErrRetryable, err)
	}

	balances, err := calculator.Aggregate(expenses)
	if err != nil {
		slog.Error("Failed to aggregate balances", "group_id", groupID, "error", err)
		e.metrics.ObserveRun(metrics.ResultComputationError, started, 0, false)
		return nil, fmt.Errorf("%w: %w", ErrComputation, err)
	}

	result := calculator.MatchBalances(balances)
	residual := result.Residual > calculator.Tolerance

	if err := e.records.ReplaceUnsettled(ctx, groupID, toRecords(result.Transactions)); err != nil {
		slog.Error("Failed to replace settlements", "group_id", groupID, "error", err)
		e.metrics.ObserveRun(metrics.ResultStorageError, started, 0, residual)
		return nil, fmt.Errorf("%w: %w", ErrRetryable, err)
	}

	e.metrics.ObserveRun(metrics.ResultOK, started, len(result.Transactions), residual)
	slog.Info("Settlements recalculated",
		"group_id", groupID,
		"expenses", len(expenses),
		"members", len(balances),
		"transactions", len(result.Transactions),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return result.Transactions, nil
}

// Preview matches client-supplied balances without touching storage.
func (e *Engine) Preview(entries []calculator.Entry) []calculator.Transaction {
	return calculator.Match(calculator.FromEntries(entries))
}

func toRecords(txs []calculator.Transaction) []*models.SettlementRecord {
	records := make([]*models.SettlementRecord, len(txs))
	for i, tx := range txs {
		records[i] = &models.SettlementRecord{
			DebtorID:    tx.From,
			CreditorID:  tx.To,
			AmountToPay: tx.Amount,
		}
	}
	return records
}
