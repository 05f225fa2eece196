package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

// TradeRecordStore implements domain.TradeRecordStore using PostgreSQL.
// Records are append-only: there is no update path.
type TradeRecordStore struct {
	pool *pgxpool.Pool
}

var _ domain.TradeRecordStore = (*TradeRecordStore)(nil)

// NewTradeRecordStore creates a TradeRecordStore backed by the given pool.
func NewTradeRecordStore(pool *pgxpool.Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Create inserts the record header and its legs in one transaction.
func (s *TradeRecordStore) Create(ctx context.Context, record *domain.TradeRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin trade record tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertRecord = `
		INSERT INTO trade_records (
			id, market_id, slug, price_sum, edge, dry_run, status, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.Exec(ctx, insertRecord,
		record.ID, record.MarketID, record.Slug,
		record.PriceSum.String(), record.Edge.String(),
		record.DryRun, string(record.Status), record.ExecutedAt,
	); err != nil {
		return fmt.Errorf("postgres: insert trade record %s: %w", record.ID, err)
	}

	const insertLeg = `
		INSERT INTO trade_legs (
			record_id, leg_index, token_id, outcome,
			requested_usd, filled_usd, filled_price, status, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, leg := range record.Legs {
		if _, err := tx.Exec(ctx, insertLeg,
			record.ID, i, leg.TokenID, leg.Outcome,
			leg.RequestedUSD.String(), leg.FilledUSD.String(), leg.FilledPrice.String(),
			string(leg.Status), leg.Message,
		); err != nil {
			return fmt.Errorf("postgres: insert trade leg %d of record %s: %w", i, record.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit trade record %s: %w", record.ID, err)
	}
	return nil
}

const recordSelectCols = `id, market_id, slug, price_sum::text, edge::text, dry_run, status, executed_at`

// GetByID returns one record with its legs, or domain.ErrNotFound.
func (s *TradeRecordStore) GetByID(ctx context.Context, id string) (*domain.TradeRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordSelectCols+` FROM trade_records WHERE id = $1`, id)

	record, err := scanRecordRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("postgres: trade record %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("postgres: get trade record %s: %w", id, err)
	}

	if err := s.loadLegs(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecent returns the most recently executed records, legs included.
func (s *TradeRecordStore) ListRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+recordSelectCols+` FROM trade_records ORDER BY executed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trade records: %w", err)
	}
	defer rows.Close()

	var records []*domain.TradeRecord
	for rows.Next() {
		record, err := scanRecordRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan trade record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate trade records: %w", err)
	}

	for _, record := range records {
		if err := s.loadLegs(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *TradeRecordStore) loadLegs(ctx context.Context, record *domain.TradeRecord) error {
	rows, err := s.pool.Query(ctx, `
		SELECT token_id, outcome, requested_usd::text, filled_usd::text,
			filled_price::text, status, message
		FROM trade_legs WHERE record_id = $1 ORDER BY leg_index`, record.ID)
	if err != nil {
		return fmt.Errorf("postgres: load legs of record %s: %w", record.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			leg                              domain.TradeLeg
			requested, filled, price, status string
		)
		if err := rows.Scan(&leg.TokenID, &leg.Outcome, &requested, &filled, &price, &status, &leg.Message); err != nil {
			return fmt.Errorf("postgres: scan leg of record %s: %w", record.ID, err)
		}
		if leg.RequestedUSD, err = decimal.NewFromString(requested); err != nil {
			return fmt.Errorf("postgres: parse requested_usd of record %s: %w", record.ID, err)
		}
		if leg.FilledUSD, err = decimal.NewFromString(filled); err != nil {
			return fmt.Errorf("postgres: parse filled_usd of record %s: %w", record.ID, err)
		}
		if leg.FilledPrice, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("postgres: parse filled_price of record %s: %w", record.ID, err)
		}
		leg.Status = domain.LegStatus(status)
		record.Legs = append(record.Legs, leg)
	}
	return rows.Err()
}

func scanRecordRow(row pgx.Row) (*domain.TradeRecord, error) {
	var (
		record         domain.TradeRecord
		priceSum, edge string
		status         string
	)
	if err := row.Scan(
		&record.ID, &record.MarketID, &record.Slug,
		&priceSum, &edge, &record.DryRun, &status, &record.ExecutedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if record.PriceSum, err = decimal.NewFromString(priceSum); err != nil {
		return nil, fmt.Errorf("parse price_sum: %w", err)
	}
	if record.Edge, err = decimal.NewFromString(edge); err != nil {
		return nil, fmt.Errorf("parse edge: %w", err)
	}
	record.Status = domain.TradeStatus(status)
	return &record, nil
}
