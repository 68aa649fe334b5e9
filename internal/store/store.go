// Package store persists verified company records.
package store

import (
	"context"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/model"
)

// Store defines the persistence interface for verification outcomes.
// Company names are matched case-insensitively throughout.
type Store interface {
	// FindByName returns the record for a company name, or (nil, nil)
	// when absent.
	FindByName(ctx context.Context, name string) (*model.CompanyRecord, error)

	// Create inserts a new record and returns it with ID and timestamps set.
	Create(ctx context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error)

	// Update overwrites the mutable fields of an existing record by ID.
	Update(ctx context.Context, rec model.CompanyRecord) error

	// Upsert creates or updates the record matching rec.Name.
	Upsert(ctx context.Context, rec model.CompanyRecord) (*model.CompanyRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
