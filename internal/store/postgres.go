package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for
// the hot store operations.
var preparedStatements = map[string]string{
	"find_company":   pgFindCompany,
	"insert_company": pgInsertCompany,
	"update_company": pgUpdateCompany,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                 UUID PRIMARY KEY,
	name               TEXT NOT NULL,
	user_id            TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'Pending',
	trust_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	trust_tier         TEXT NOT NULL DEFAULT '',
	report_path        TEXT NOT NULL DEFAULT '',
	approved           BOOLEAN NOT NULL DEFAULT FALSE,
	hr_name            TEXT NOT NULL DEFAULT '',
	hr_email           TEXT NOT NULL DEFAULT '',
	website_url        TEXT NOT NULL DEFAULT '',
	linkedin_url       TEXT NOT NULL DEFAULT '',
	registry_id        TEXT NOT NULL DEFAULT '',
	registered_address TEXT NOT NULL DEFAULT '',
	country            TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name_lower ON companies (LOWER(name));
CREATE INDEX IF NOT EXISTS idx_companies_user_id ON companies (user_id);
`

const pgFindCompany = `SELECT id, name, user_id, status, trust_score, trust_tier, report_path, approved,
	hr_name, hr_email, website_url, linkedin_url, registry_id, registered_address, country,
	created_at, updated_at
FROM companies WHERE LOWER(name) = LOWER($1) LIMIT 1`

const pgInsertCompany = `INSERT INTO companies (id, name, user_id, status, trust_score, trust_tier,
	report_path, approved, hr_name, hr_email, website_url, linkedin_url, registry_id,
	registered_address, country, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const pgUpdateCompany = `UPDATE companies
SET user_id = $1, status = $2, trust_score = $3, trust_tier = $4, report_path = $5, approved = $6,
	hr_name = $7, hr_email = $8, website_url = $9, linkedin_url = $10, registry_id = $11,
	registered_address = $12, country = $13, updated_at = $14
WHERE id = $15`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*model.CompanyRecord, error) {
	row := s.pool.QueryRow(ctx, pgFindCompany, name)
	rec, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: find company")
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error) {
	rec.ID = uuid.New().String()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.pool.Exec(ctx, pgInsertCompany,
		rec.ID, rec.Name, rec.UserID, string(rec.Status), rec.TrustScore, string(rec.TrustTier),
		rec.ReportPath, rec.Approved, rec.HRName, rec.HREmail, rec.WebsiteURL, rec.LinkedInURL,
		rec.RegistryID, rec.RegisteredAddress, rec.Country, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert company")
	}
	return &rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec model.CompanyRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, pgUpdateCompany,
		rec.UserID, string(rec.Status), rec.TrustScore, string(rec.TrustTier), rec.ReportPath,
		rec.Approved, rec.HRName, rec.HREmail, rec.WebsiteURL, rec.LinkedInURL, rec.RegistryID,
		rec.RegisteredAddress, rec.Country, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update company")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: company %s not found", rec.ID)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error) {
	existing, err := s.FindByName(ctx, rec.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return s.Create(ctx, rec)
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if err := s.Update(ctx, rec); err != nil {
		return nil, err
	}
	return s.FindByName(ctx, rec.Name)
}
