package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = "id, group_id, description, amount, split_type, created_by, created_at, updated_at"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// CreateExpense persists a new expense with its payers and split.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = expense.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		string(expense.SplitType), string(expense.CreatedBy), expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertExpenseLines(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID with its payers and split.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := loadExpenses(ctx, s.db, "WHERE id = ?", expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return &expenses[0], nil
}

// UpdateExpense replaces description, amount, split and payers of an expense.
// GroupID, CreatedBy and CreatedAt are kept from the stored row.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET description = ?, amount = ?, split_type = ?, updated_at = ? WHERE id = ?",
		expense.Description, expense.Amount, string(expense.SplitType), expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_payers WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear payers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear split: %w", err)
	}
	if err := insertExpenseLines(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by ID. Payers and split rows cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListExpensesByGroup retrieves every expense of a group, oldest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]models.Expense, error) {
	return loadExpenses(ctx, s.db, "WHERE group_id = ?", groupID)
}

func insertExpenseLines(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, p := range expense.Payers {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_payers (expense_id, user_id, amount, position) VALUES (?, ?, ?, ?)",
			expense.ID, string(p.UserID), p.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payer: %w", err)
		}
	}
	for i, sh := range expense.Splits {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, percentage, position) VALUES (?, ?, ?, ?, ?)",
			expense.ID, string(sh.UserID), sh.Amount, sh.Percentage, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split share: %w", err)
		}
	}
	return nil
}

// loadExpenses reads the expenses matching where, then their payers and
// shares in one query each. The line queries reuse where in a subquery so the
// parameter count does not grow with the number of expenses. User references
// are normalized here, once.
func loadExpenses(ctx context.Context, q queryer, where string, args ...any) ([]models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses "+where+" ORDER BY created_at, rowid",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var splitType, createdBy string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &splitType, &createdBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.SplitType = models.SplitType(splitType)
		e.CreatedBy = models.NormalizeUserID(createdBy)
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	index := make(map[string]int, len(expenses))
	for i, e := range expenses {
		index[e.ID] = i
	}
	in := "(SELECT id FROM expenses " + where + ")"

	payerRows, err := q.QueryContext(ctx,
		"SELECT expense_id, user_id, amount FROM expense_payers WHERE expense_id IN "+in+" ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payers: %w", err)
	}
	for payerRows.Next() {
		var expenseID, userID string
		var amount float64
		if err := payerRows.Scan(&expenseID, &userID, &amount); err != nil {
			payerRows.Close()
			return nil, fmt.Errorf("failed to scan payer: %w", err)
		}
		e := &expenses[index[expenseID]]
		e.Payers = append(e.Payers, models.Contribution{UserID: models.NormalizeUserID(userID), Amount: amount})
	}
	payerRows.Close()
	if err := payerRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payers: %w", err)
	}

	splitRows, err := q.QueryContext(ctx,
		"SELECT expense_id, user_id, amount, percentage FROM expense_splits WHERE expense_id IN "+in+" ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query split shares: %w", err)
	}
	for splitRows.Next() {
		var expenseID, userID string
		var sh models.Share
		if err := splitRows.Scan(&expenseID, &userID, &sh.Amount, &sh.Percentage); err != nil {
			splitRows.Close()
			return nil, fmt.Errorf("failed to scan split share: %w", err)
		}
		sh.UserID = models.NormalizeUserID(userID)
		e := &expenses[index[expenseID]]
		e.Splits = append(e.Splits, sh)
	}
	splitRows.Close()
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split shares: %w", err)
	}

	return expenses, nil
}
