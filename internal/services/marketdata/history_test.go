package marketdata

import (
	"sort"
	"testing"

	"github.com/niveshapp/nivesh/internal/models"
)

func ptr(v float64) *float64 { return &v }

func assertSorted(t *testing.T, history []models.HistoryPoint) {
	t.Helper()
	if !sort.SliceIsSorted(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	}) {
		t.Errorf("history not sorted: %+v", history)
	}
	seen := make(map[string]struct{})
	for _, p := range history {
		if _, dup := seen[p.Date]; dup {
			t.Errorf("duplicate date %s in %+v", p.Date, history)
		}
		seen[p.Date] = struct{}{}
	}
}

func TestUpsertHistoryAppend(t *testing.T) {
	var history []models.HistoryPoint
	history = upsertHistory(history, "2025-01-06", ptr(100), 0)
	history = upsertHistory(history, "2025-01-07", ptr(101), 0)
	history = upsertHistory(history, "2025-01-08", ptr(102), 0)

	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	assertSorted(t, history)
	if history[2].Close != 102 {
		t.Errorf("last close = %v, want 102", history[2].Close)
	}
}

func TestUpsertHistorySameDayOverwrite(t *testing.T) {
	history := []models.HistoryPoint{{Date: "2025-01-08", Close: 100}}
	history = upsertHistory(history, "2025-01-08", ptr(105), 0)

	if len(history) != 1 {
		t.Fatalf("len = %d, want 1 (same-day upsert must not duplicate)", len(history))
	}
	if history[0].Close != 105 {
		t.Errorf("close = %v, want 105", history[0].Close)
	}
}

func TestUpsertHistoryOutOfOrderInsert(t *testing.T) {
	history := []models.HistoryPoint{
		{Date: "2025-01-06", Close: 100},
		{Date: "2025-01-08", Close: 102},
	}
	history = upsertHistory(history, "2025-01-07", ptr(101), 0)

	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	assertSorted(t, history)
	if history[1].Date != "2025-01-07" || history[1].Close != 101 {
		t.Errorf("inserted point = %+v, want 2025-01-07/101", history[1])
	}
}

func TestUpsertHistoryOutOfOrderOverwrite(t *testing.T) {
	history := []models.HistoryPoint{
		{Date: "2025-01-06", Close: 100},
		{Date: "2025-01-07", Close: 101},
		{Date: "2025-01-08", Close: 102},
	}
	history = upsertHistory(history, "2025-01-07", ptr(999), 0)

	if len(history) != 3 {
		t.Fatalf("len = %d, want 3", len(history))
	}
	assertSorted(t, history)
	if history[1].Close != 999 {
		t.Errorf("overwritten close = %v, want 999", history[1].Close)
	}
}

func TestUpsertHistoryNilCloseNoOp(t *testing.T) {
	history := []models.HistoryPoint{{Date: "2025-01-08", Close: 100}}
	history = upsertHistory(history, "2025-01-09", nil, 0)

	if len(history) != 1 {
		t.Errorf("nil close must be a no-op, got %+v", history)
	}
}

func TestUpsertHistoryTrimsOldest(t *testing.T) {
	var history []models.HistoryPoint
	for _, d := range []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04"} {
		history = upsertHistory(history, d, ptr(1), 3)
	}

	if len(history) != 3 {
		t.Fatalf("len = %d, want 3 after trim", len(history))
	}
	if history[0].Date != "2025-01-02" || history[2].Date != "2025-01-04" {
		t.Errorf("trim kept wrong window: %+v", history)
	}
}

func TestUpsertHistoryIdempotent(t *testing.T) {
	var history []models.HistoryPoint
	history = upsertHistory(history, "2025-01-08", ptr(100), 0)
	history = upsertHistory(history, "2025-01-08", ptr(100), 0)
	history = upsertHistory(history, "2025-01-08", ptr(100), 0)

	if len(history) != 1 {
		t.Errorf("repeated identical upserts must converge, got %+v", history)
	}
}

func TestUpdateHistoryFromQuotes(t *testing.T) {
	bucket := models.NewExchangeBucket()
	quotes := map[string]models.QuoteRecord{
		"TCS":      {Symbol: "TCS", Close: 4100},
		"RELIANCE": {Symbol: "RELIANCE", Close: 2500},
	}

	updateHistoryFromQuotes(bucket, quotes, "2025-01-08", 0)
	updateHistoryFromQuotes(bucket, quotes, "2025-01-09", 0)

	for symbol := range quotes {
		history := bucket.History[symbol]
		if len(history) != 2 {
			t.Errorf("%s history = %+v, want 2 points", symbol, history)
		}
		assertSorted(t, history)
	}
}
