package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/fundscope/internal/contracts"
)

// schemaDDL creates the dataset tables
// 단일 "현재" 데이터셋: 저장 시 전체 교체
const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS fundscope;

	CREATE TABLE IF NOT EXISTS fundscope.dataset_meta (
		singleton   BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
		dataset_id  UUID NOT NULL,
		source      TEXT NOT NULL,
		saved_at    TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fundscope.funds (
		fund_id         BIGINT PRIMARY KEY,
		fund_name       TEXT NOT NULL,
		isin            TEXT NOT NULL DEFAULT '',
		firm_name       TEXT NOT NULL DEFAULT '',
		category        TEXT NOT NULL DEFAULT '',
		sector          TEXT NOT NULL DEFAULT '',
		management_fee  DOUBLE PRECISION,
		performance_fee DOUBLE PRECISION,
		rating          DOUBLE PRECISION,
		investment_area TEXT NOT NULL DEFAULT '',
		attributes      JSONB NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS fundscope.monthly_returns (
		fund_id    BIGINT NOT NULL REFERENCES fundscope.funds (fund_id) ON DELETE CASCADE,
		obs_date   DATE NOT NULL,
		return_pct DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (fund_id, obs_date)
	);
`

// Version identifies the persisted dataset
type Version struct {
	DatasetID string
	Source    string
	SavedAt   time.Time
}

// PostgresStore persists the current dataset
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates tables when missing
func (r *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveDataset replaces the persisted dataset in one transaction
func (r *PostgresStore) SaveDataset(ctx context.Context, ds *Dataset) (*Version, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE fundscope.monthly_returns, fundscope.funds`); err != nil {
		return nil, fmt.Errorf("truncate dataset: %w", err)
	}

	fundQuery := `
		INSERT INTO fundscope.funds (
			fund_id, fund_name, isin, firm_name, category, sector,
			management_fee, performance_fee, rating, investment_area, attributes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	returnQuery := `
		INSERT INTO fundscope.monthly_returns (fund_id, obs_date, return_pct)
		VALUES ($1, $2, $3)
	`

	batch := &pgx.Batch{}
	for _, f := range ds.Funds {
		attrs, err := json.Marshal(nonNilAttributes(f.Attributes))
		if err != nil {
			return nil, fmt.Errorf("marshal attributes for fund %d: %w", f.ID, err)
		}
		batch.Queue(fundQuery,
			f.ID, f.Name, f.ISIN, f.Firm, f.Category, f.Sector,
			f.ManagementFee, f.PerformanceFee, f.Rating, f.InvestmentArea, attrs,
		)
	}
	for _, f := range ds.Funds {
		for _, o := range ds.Series[f.ID].Observations {
			batch.Queue(returnQuery, f.ID, o.Date.Time, o.ReturnPct)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("insert dataset: %w", err)
	}

	v := &Version{
		DatasetID: uuid.NewString(),
		Source:    ds.Source,
		SavedAt:   time.Now().UTC(),
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO fundscope.dataset_meta (singleton, dataset_id, source, saved_at)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (singleton) DO UPDATE SET
			dataset_id = EXCLUDED.dataset_id,
			source = EXCLUDED.source,
			saved_at = EXCLUDED.saved_at
	`, v.DatasetID, v.Source, v.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert dataset meta: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return v, nil
}

// LatestVersion returns the persisted dataset version, ErrNoData when none
func (r *PostgresStore) LatestVersion(ctx context.Context) (*Version, error) {
	var v Version
	err := r.pool.QueryRow(ctx, `
		SELECT dataset_id::text, source, saved_at
		FROM fundscope.dataset_meta
		WHERE singleton
	`).Scan(&v.DatasetID, &v.Source, &v.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("query dataset meta: %w", err)
	}
	return &v, nil
}

// LoadDataset reads the whole persisted dataset
func (r *PostgresStore) LoadDataset(ctx context.Context) (*Dataset, *Version, error) {
	v, err := r.LatestVersion(ctx)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT fund_id, fund_name, isin, firm_name, category, sector,
			   management_fee, performance_fee, rating, investment_area, attributes
		FROM fundscope.funds
		ORDER BY fund_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query funds: %w", err)
	}

	ds := &Dataset{Source: v.Source, Series: make(map[int64]contracts.ReturnSeries)}
	for rows.Next() {
		var f contracts.Fund
		var attrs []byte
		if err := rows.Scan(
			&f.ID, &f.Name, &f.ISIN, &f.Firm, &f.Category, &f.Sector,
			&f.ManagementFee, &f.PerformanceFee, &f.Rating, &f.InvestmentArea, &attrs,
		); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan fund: %w", err)
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &f.Attributes); err != nil {
				rows.Close()
				return nil, nil, fmt.Errorf("unmarshal attributes for fund %d: %w", f.ID, err)
			}
		}
		ds.Funds = append(ds.Funds, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate funds: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT fund_id, obs_date, return_pct
		FROM fundscope.monthly_returns
		ORDER BY fund_id, obs_date
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("query monthly returns: %w", err)
	}
	defer rows.Close()

	obs := make(map[int64][]contracts.ReturnObservation)
	for rows.Next() {
		var o contracts.ReturnObservation
		var d time.Time
		if err := rows.Scan(&o.FundID, &d, &o.ReturnPct); err != nil {
			return nil, nil, fmt.Errorf("scan monthly return: %w", err)
		}
		o.Date = contracts.DateOf(d)
		obs[o.FundID] = append(obs[o.FundID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate monthly returns: %w", err)
	}

	for id, o := range obs {
		ds.Series[id] = contracts.NewReturnSeries(id, o)
	}

	return ds, v, nil
}

func nonNilAttributes(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
