package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolEngine/internal/model"
)

// Store provides Postgres persistence for pools and the operation journal.
// Amounts are NUMERIC(20,0) columns exchanged as decimal text.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS amm_pools (
	pool_address    TEXT PRIMARY KEY,
	token_a         TEXT NOT NULL,
	token_b         TEXT NOT NULL,
	authority       TEXT NOT NULL,
	vault_a         TEXT NOT NULL,
	vault_b         TEXT NOT NULL,
	lp_mint         TEXT NOT NULL,
	fee_numerator   NUMERIC(20,0) NOT NULL,
	fee_denominator NUMERIC(20,0) NOT NULL,
	total_lp_supply NUMERIC(20,0) NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS amm_operations (
	id              BIGSERIAL PRIMARY KEY,
	pool_address    TEXT NOT NULL,
	operation       TEXT NOT NULL,
	account         TEXT NOT NULL,
	token_in        TEXT NOT NULL DEFAULT '',
	token_out       TEXT NOT NULL DEFAULT '',
	amount_a        NUMERIC(20,0) NOT NULL,
	amount_b        NUMERIC(20,0) NOT NULL,
	amount_in       NUMERIC(20,0) NOT NULL,
	amount_out      NUMERIC(20,0) NOT NULL,
	fee             NUMERIC(20,0) NOT NULL,
	lp_amount       NUMERIC(20,0) NOT NULL,
	total_lp_supply NUMERIC(20,0) NOT NULL,
	executed_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS amm_operations_pool_idx ON amm_operations (pool_address, id);
`

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const poolColumns = `pool_address, token_a, token_b, authority, vault_a, vault_b, lp_mint,
	fee_numerator::text, fee_denominator::text, total_lp_supply::text`

// LoadPool returns the pool stored under address.
func (s *Store) LoadPool(ctx context.Context, address string) (model.Pool, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+poolColumns+` FROM amm_pools WHERE pool_address=$1`, address)
	pool, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}
	return pool, true, nil
}

// SavePool upserts a pool record.
func (s *Store) SavePool(ctx context.Context, pool model.Pool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO amm_pools (
			pool_address, token_a, token_b, authority, vault_a, vault_b, lp_mint,
			fee_numerator, fee_denominator, total_lp_supply, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9::numeric,$10::numeric,now(),now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			fee_numerator = EXCLUDED.fee_numerator,
			fee_denominator = EXCLUDED.fee_denominator,
			total_lp_supply = EXCLUDED.total_lp_supply,
			updated_at = now()
	`,
		pool.Address,
		pool.TokenA,
		pool.TokenB,
		pool.Authority,
		pool.VaultA,
		pool.VaultB,
		pool.LPMint,
		u64(pool.FeeNumerator),
		u64(pool.FeeDenominator),
		u64(pool.TotalLPSupply),
	)
	return err
}

// ListPools returns every stored pool ordered by address.
func (s *Store) ListPools(ctx context.Context) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+poolColumns+` FROM amm_pools ORDER BY pool_address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []model.Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	return pools, rows.Err()
}

// PutOperations appends journal records in one batch.
func (s *Store) PutOperations(ctx context.Context, ops []model.OperationRecord) error {
	if len(ops) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, op := range ops {
		executedAt, err := time.Parse(time.RFC3339Nano, op.ExecutedAt)
		if err != nil {
			return fmt.Errorf("operation time %q: %w", op.ExecutedAt, err)
		}
		batch.Queue(`
			INSERT INTO amm_operations (
				pool_address, operation, account, token_in, token_out,
				amount_a, amount_b, amount_in, amount_out, fee, lp_amount, total_lp_supply, executed_at
			) VALUES ($1,$2,$3,$4,$5,$6::numeric,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11::numeric,$12::numeric,$13)
		`,
			op.Pool,
			op.Operation,
			op.Account,
			op.TokenIn,
			op.TokenOut,
			u64(op.AmountA),
			u64(op.AmountB),
			u64(op.AmountIn),
			u64(op.AmountOut),
			u64(op.Fee),
			u64(op.LPAmount),
			u64(op.TotalLPSupply),
			executedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ops {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func scanPool(row pgx.Row) (model.Pool, error) {
	var (
		pool             model.Pool
		num, den, supply string
	)
	if err := row.Scan(
		&pool.Address,
		&pool.TokenA,
		&pool.TokenB,
		&pool.Authority,
		&pool.VaultA,
		&pool.VaultB,
		&pool.LPMint,
		&num,
		&den,
		&supply,
	); err != nil {
		return model.Pool{}, err
	}

	var err error
	if pool.FeeNumerator, err = parseU64(num); err != nil {
		return model.Pool{}, err
	}
	if pool.FeeDenominator, err = parseU64(den); err != nil {
		return model.Pool{}, err
	}
	if pool.TotalLPSupply, err = parseU64(supply); err != nil {
		return model.Pool{}, err
	}
	return pool, nil
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return v, nil
}
