package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL COLLATE NOCASE,
	user_id            TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'Pending',
	trust_score        REAL NOT NULL DEFAULT 0,
	trust_tier         TEXT NOT NULL DEFAULT '',
	report_path        TEXT NOT NULL DEFAULT '',
	approved           INTEGER NOT NULL DEFAULT 0,
	hr_name            TEXT NOT NULL DEFAULT '',
	hr_email           TEXT NOT NULL DEFAULT '',
	website_url        TEXT NOT NULL DEFAULT '',
	linkedin_url       TEXT NOT NULL DEFAULT '',
	registry_id        TEXT NOT NULL DEFAULT '',
	registered_address TEXT NOT NULL DEFAULT '',
	country            TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_companies_user_id ON companies(user_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const companyColumns = `id, name, user_id, status, trust_score, trust_tier, report_path, approved,
	hr_name, hr_email, website_url, linkedin_url, registry_id, registered_address, country,
	created_at, updated_at`

func (s *SQLiteStore) FindByName(ctx context.Context, name string) (*model.CompanyRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE name = ? LIMIT 1`, name)

	rec, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: find company")
	}
	return rec, nil
}

func (s *SQLiteStore) Create(ctx context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error) {
	rec.ID = uuid.New().String()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, user_id, status, trust_score, trust_tier, report_path, approved,
			hr_name, hr_email, website_url, linkedin_url, registry_id, registered_address, country,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.UserID, string(rec.Status), rec.TrustScore, string(rec.TrustTier),
		rec.ReportPath, rec.Approved, rec.HRName, rec.HREmail, rec.WebsiteURL, rec.LinkedInURL,
		rec.RegistryID, rec.RegisteredAddress, rec.Country, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert company")
	}
	return &rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, rec model.CompanyRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET user_id = ?, status = ?, trust_score = ?, trust_tier = ?, report_path = ?, approved = ?,
			hr_name = ?, hr_email = ?, website_url = ?, linkedin_url = ?, registry_id = ?,
			registered_address = ?, country = ?, updated_at = ?
		WHERE id = ?`,
		rec.UserID, string(rec.Status), rec.TrustScore, string(rec.TrustTier), rec.ReportPath,
		rec.Approved, rec.HRName, rec.HREmail, rec.WebsiteURL, rec.LinkedInURL, rec.RegistryID,
		rec.RegisteredAddress, rec.Country, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update company")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: update company rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: company %s not found", rec.ID)
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error) {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*model.CompanyRecord, error) {
	var rec model.CompanyRecord
	var status, tier string
	err := row.Scan(
		&rec.ID, &rec.Name, &rec.UserID, &status, &rec.TrustScore, &tier, &rec.ReportPath,
		&rec.Approved, &rec.HRName, &rec.HREmail, &rec.WebsiteURL, &rec.LinkedInURL,
		&rec.RegistryID, &rec.RegisteredAddress, &rec.Country, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = model.VerificationStatus(status)
	rec.TrustTier = model.TrustTier(tier)
	return &rec, nil
}
