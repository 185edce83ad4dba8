package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"volarb/internal/models"
)

// singletonID pins the document to one row; the account is a single
// aggregate, not a table of them.
const singletonID = 1

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Load(ctx context.Context) (*models.PortfolioDocument, error) {
	var rec models.PortfolioStateRecord
	err := r.db.WithContext(ctx).First(&rec, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load portfolio state: %w", err)
	}

	var doc models.PortfolioDocument
	if err := json.Unmarshal(rec.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decode portfolio state: %w", err)
	}
	if err := doc.Normalize(); err != nil {
		return nil, fmt.Errorf("validate portfolio state: %w", err)
	}
	return &doc, nil
}

func (r *Repository) Save(ctx context.Context, doc *models.PortfolioDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode portfolio state: %w", err)
	}
	rec := models.PortfolioStateRecord{
		ID:            singletonID,
		SchemaVersion: doc.Version,
		Payload:       payload,
	}
	// Single-row upsert keeps the whole-document write atomic.
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"schema_version", "payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save portfolio state: %w", err)
	}
	return nil
}
