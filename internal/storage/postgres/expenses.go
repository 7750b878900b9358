package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = "id, group_id, description, amount, split_type, created_by, created_at, updated_at"

// CreateExpense persists a new expense with its payers and split.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.UpdatedAt = expense.CreatedAt

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			expense.ID, expense.GroupID, expense.Description, expense.Amount,
			string(expense.SplitType), string(expense.CreatedBy), expense.CreatedAt, expense.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return insertExpenseLines(ctx, tx, expense)
	})
}

// GetExpense retrieves an expense by ID with its payers and split.
func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := s.loadExpenses(ctx, "WHERE id = $1", expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return &expenses[0], nil
}

// UpdateExpense replaces description, amount, split and payers of an expense.
func (s *PostgresStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx,
			"UPDATE expenses SET description = $1, amount = $2, split_type = $3, updated_at = $4 WHERE id = $5",
			expense.Description, expense.Amount, string(expense.SplitType), expense.UpdatedAt, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM expense_payers WHERE expense_id = $1", expense.ID); err != nil {
			return fmt.Errorf("failed to clear payers: %w", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM expense_splits WHERE expense_id = $1", expense.ID); err != nil {
			return fmt.Errorf("failed to clear split: %w", err)
		}
		return insertExpenseLines(ctx, tx, expense)
	})
}

// DeleteExpense removes an expense by ID.
func (s *PostgresStore) DeleteExpense(ctx context.Context, expenseID string) error {
	ct, err := s.pool.Exec(ctx, "DELETE FROM expenses WHERE id = $1", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListExpensesByGroup retrieves every expense of a group, oldest first.
func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	return s.loadExpenses(ctx, "WHERE group_id = $1", groupID)
}

func insertExpenseLines(ctx context.Context, tx pgx.Tx, expense *models.Expense) error {
	batch := &pgx.Batch{}
	for i, p := range expense.Payers {
		batch.Queue(
			"INSERT INTO expense_payers (expense_id, user_id, amount, position) VALUES ($1, $2, $3, $4)",
			expense.ID, string(p.UserID), p.Amount, i,
		)
	}
	for i, sh := range expense.Splits {
		batch.Queue(
			"INSERT INTO expense_splits (expense_id, user_id, amount, percentage, position) VALUES ($1, $2, $3, $4, $5)",
			expense.ID, string(sh.UserID), sh.Amount, sh.Percentage, i,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert expense lines: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadExpenses(ctx context.Context, where string, args ...any) ([]models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+expenseColumns+" FROM expenses "+where+" ORDER BY created_at, seq",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Expense, error) {
		var e models.Expense
		var splitType, createdBy string
		err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &splitType, &createdBy, &e.CreatedAt, &e.UpdatedAt)
		e.SplitType = models.SplitType(splitType)
		e.CreatedBy = models.NormalizeUserID(createdBy)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	index := make(map[string]int, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		index[e.ID] = i
		ids[i] = e.ID
	}

	payerRows, err := s.pool.Query(ctx,
		"SELECT expense_id, user_id, amount FROM expense_payers WHERE expense_id = ANY($1) ORDER BY expense_id, position",
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payers: %w", err)
	}
	var expenseID, userID string
	var amount, percentage float64
	_, err = pgx.ForEachRow(payerRows, []any{&expenseID, &userID, &amount}, func() error {
		e := &expenses[index[expenseID]]
		e.Payers = append(e.Payers, models.Contribution{UserID: models.NormalizeUserID(userID), Amount: amount})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payers: %w", err)
	}

	splitRows, err := s.pool.Query(ctx,
		"SELECT expense_id, user_id, amount, percentage FROM expense_splits WHERE expense_id = ANY($1) ORDER BY expense_id, position",
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query split shares: %w", err)
	}
	_, err = pgx.ForEachRow(splitRows, []any{&expenseID, &userID, &amount, &percentage}, func() error {
		e := &expenses[index[expenseID]]
		e.Splits = append(e.Splits, models.Share{UserID: models.NormalizeUserID(userID), Amount: amount, Percentage: percentage})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan split shares: %w", err)
	}

	return expenses, nil
}

// isNoRows reports whether err is pgx's "no rows" sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
