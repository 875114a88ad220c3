package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
	"github.com/niveshapp/nivesh/internal/models"
)

// datasetFetcher retrieves one day's bulk price file.
type datasetFetcher func(ctx context.Context, date time.Time) ([]map[string]string, error)

// findLatestDataset walks backward from baseDate one calendar day at a
// time until the fetcher returns data, making up to lookbackDays+1
// attempts. A not-found result means "try an earlier date"; any other
// error is a hard failure and aborts the walk immediately.
func findLatestDataset(ctx context.Context, fetch datasetFetcher, baseDate time.Time, lookbackDays int) (*models.Dataset, error) {
	for offset := 0; offset <= lookbackDays; offset++ {
		date := baseDate.AddDate(0, 0, -offset)
		rows, err := fetch(ctx, date)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				continue
			}
			return nil, err
		}
		return &models.Dataset{Date: common.FormatDateKey(date), Rows: rows}, nil
	}
	return nil, fmt.Errorf("no dataset found within %d-day lookback window", lookbackDays)
}
