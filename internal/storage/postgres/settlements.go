package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const settlementColumns = "id, group_id, debtor_id, creditor_id, amount_to_pay, settled, created_at, updated_at"

// ReplaceUnsettled deletes the group's unsettled records and inserts records
// in one transaction. Settled records are kept.
func (s *PostgresStore) ReplaceUnsettled(ctx context.Context, groupID string, records []*models.SettlementRecord) error {
	now := time.Now().Unix()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"DELETE FROM settlement_records WHERE group_id = $1 AND NOT settled", groupID,
		); err != nil {
			return fmt.Errorf("failed to delete unsettled records: %w", err)
		}

		batch := &pgx.Batch{}
		for _, r := range records {
			if r.ID == "" {
				r.ID = uuid.New().String()
			}
			r.GroupID = groupID
			r.Settled = false
			r.CreatedAt = now
			r.UpdatedAt = now
			batch.Queue(
				`INSERT INTO settlement_records (`+settlementColumns+`) VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`,
				r.ID, r.GroupID, string(r.DebtorID), string(r.CreditorID), r.AmountToPay, r.CreatedAt, r.UpdatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert settlement records: %w", err)
		}
		return nil
	})
}

// FindSettlementsByUserAndGroup retrieves every record of the group where the
// user is either party, newest first.
func (s *PostgresStore) FindSettlementsByUserAndGroup(ctx context.Context, groupID string, userID models.UserID) ([]*models.SettlementRecord, error) {
	return s.querySettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlement_records
		 WHERE group_id = $1 AND (debtor_id = $2 OR creditor_id = $2)
		 ORDER BY created_at DESC, seq DESC`,
		groupID, string(userID),
	)
}

// ListSettlementsByGroup retrieves the group's records, newest first.
func (s *PostgresStore) ListSettlementsByGroup(ctx context.Context, groupID string, unsettledOnly bool) ([]*models.SettlementRecord, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlement_records WHERE group_id = $1`
	if unsettledOnly {
		query += " AND NOT settled"
	}
	query += " ORDER BY created_at DESC, seq DESC"
	return s.querySettlements(ctx, query, groupID)
}

// GetSettlement retrieves a settlement record by ID.
func (s *PostgresStore) GetSettlement(ctx context.Context, settlementID string) (*models.SettlementRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+settlementColumns+` FROM settlement_records WHERE id = $1`, settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanSettlement)
	if isNoRows(err) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return r, nil
}

// MarkSettled flips one unsettled record to settled and returns it.
func (s *PostgresStore) MarkSettled(ctx context.Context, settlementID string) (*models.SettlementRecord, error) {
	rows, err := s.pool.Query(ctx,
		`UPDATE settlement_records SET settled = TRUE, updated_at = $1
		 WHERE id = $2 AND NOT settled
		 RETURNING `+settlementColumns,
		time.Now().Unix(), settlementID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark settlement settled: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanSettlement)
	if isNoRows(err) {
		if _, err := s.GetSettlement(ctx, settlementID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrAlreadySettled)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark settlement settled: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) querySettlements(ctx context.Context, query string, args ...any) ([]*models.SettlementRecord, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanSettlement)
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlements: %w", err)
	}
	return records, nil
}

func scanSettlement(row pgx.CollectableRow) (*models.SettlementRecord, error) {
	r := &models.SettlementRecord{}
	var debtor, creditor string
	if err := row.Scan(&r.ID, &r.GroupID, &debtor, &creditor, &r.AmountToPay, &r.Settled, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.DebtorID = models.NormalizeUserID(debtor)
	r.CreditorID = models.NormalizeUserID(creditor)
	return r, nil
}
