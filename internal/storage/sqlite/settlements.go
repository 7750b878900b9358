package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = "id, group_id, debtor_id, creditor_id, amount_to_pay, settled, created_at, updated_at"

// ReplaceUnsettled deletes the group's unsettled records and inserts records
// in one transaction. Settled records are kept.
func (s *SQLiteStore) ReplaceUnsettled(ctx context.Context, groupID string, records []*models.SettlementRecord) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM settlement_records WHERE group_id = ? AND settled = 0",
		groupID,
	); err != nil {
		return fmt.Errorf("failed to delete unsettled records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO settlement_records (`+settlementColumns+`) VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		r.GroupID = groupID
		r.Settled = false
		r.CreatedAt = now
		r.UpdatedAt = now

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.GroupID, string(r.DebtorID), string(r.CreditorID), r.AmountToPay, r.CreatedAt, r.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert settlement record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindSettlementsByUserAndGroup retrieves every record of the group where the
// user is either party, newest first.
func (s *SQLiteStore) FindSettlementsByUserAndGroup(ctx context.Context, groupID string, userID models.UserID) ([]*models.SettlementRecord, error) {
	return s.querySettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlement_records
		 WHERE group_id = ? AND (debtor_id = ? OR creditor_id = ?)
		 ORDER BY created_at DESC, rowid DESC`,
		groupID, string(userID), string(userID),
	)
}

// ListSettlementsByGroup retrieves the group's records, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.SettlementRecord, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlement_records WHERE group_id = ?`
	if unsettledOnly {
		query += " AND settled = 0"
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	return s.querySettlements(ctx, query, groupID)
}

// GetSettlement retrieves a settlement record by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.SettlementRecord, error) {
	r, err := scanSettlement(s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlement_records WHERE id = ?`,
		settlementID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return r, nil
}

// MarkSettled flips one unsettled record to settled.
func (s *SQLiteStore) MarkSettled(ctx context.Context, settlementID string) (*models.SettlementRecord, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlement_records SET settled = 1, updated_at = ? WHERE id = ? AND settled = 0",
		time.Now().Unix(), settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark settlement settled: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		// Either missing or already settled; GetSettlement tells them apart.
		if _, err := s.GetSettlement(ctx, settlementID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrAlreadySettled)
	}

	return s.GetSettlement(ctx, settlementID)
}

func (s *SQLiteStore) querySettlements(ctx context.Context, query string, args ...any) ([]*models.SettlementRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var records []*models.SettlementRecord
	for rows.Next() {
		r, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*models.SettlementRecord, error) {
	r := &models.SettlementRecord{}
	var debtor, creditor string
	if err := row.Scan(&r.ID, &r.GroupID, &debtor, &creditor, &r.AmountToPay, &r.Settled, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.DebtorID = models.NormalizeUserID(debtor)
	r.CreditorID = models.NormalizeUserID(creditor)
	return r, nil
}
