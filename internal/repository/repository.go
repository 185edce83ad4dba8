package repository

import (
	"context"

	"volarb/internal/models"
)

// PortfolioStore persists the whole portfolio document as one unit: loaded
// once at the start of a cycle, written back once at the end. A failed Save
// must leave the previously stored document intact.
type PortfolioStore interface {
	// Load returns (nil, nil) when no portfolio has been persisted yet.
	Load(ctx context.Context) (*models.PortfolioDocument, error)
	Save(ctx context.Context, doc *models.PortfolioDocument) error
}
