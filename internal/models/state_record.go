package models

import (
	"time"

	"gorm.io/datatypes"
)

// PortfolioStateRecord is the storage row behind the state store: the whole
// portfolio document as one jsonb payload, written atomically per cycle.
type PortfolioStateRecord struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	SchemaVersion int            `gorm:"not null"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PortfolioStateRecord) TableName() string {
	return "portfolio_states"
}
