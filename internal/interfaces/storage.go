package interfaces

import (
	"context"

	"github.com/niveshapp/nivesh/internal/models"
)

// SnapshotStore persists the market data snapshot between process runs.
type SnapshotStore interface {
	// Load reads the persisted snapshot. A missing file returns (nil, nil);
	// a present-but-unparseable file returns an error so the caller can
	// log it and start empty.
	Load(ctx context.Context) (*models.MarketSnapshot, error)

	// Save atomically replaces the persisted snapshot.
	Save(ctx context.Context, snapshot *models.MarketSnapshot) error
}
