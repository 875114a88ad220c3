package marketdata

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/niveshapp/nivesh/internal/interfaces"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFindLatestDatasetWalksBack(t *testing.T) {
	var tried []string
	fetch := func(_ context.Context, date time.Time) ([]map[string]string, error) {
		key := date.Format("2006-01-02")
		tried = append(tried, key)
		if key == "2025-01-06" {
			return []map[string]string{{"SYMBOL": "TCS"}}, nil
		}
		return nil, interfaces.ErrNotFound
	}

	dataset, err := findLatestDataset(context.Background(), fetch, day("2025-01-09"), 10)
	if err != nil {
		t.Fatalf("findLatestDataset failed: %v", err)
	}
	if dataset.Date != "2025-01-06" {
		t.Errorf("date = %q, want 2025-01-06", dataset.Date)
	}
	want := []string{"2025-01-09", "2025-01-08", "2025-01-07", "2025-01-06"}
	if len(tried) != len(want) {
		t.Fatalf("tried = %v, want %v", tried, want)
	}
	for i := range want {
		if tried[i] != want[i] {
			t.Errorf("attempt %d = %q, want %q", i, tried[i], want[i])
		}
	}
}

func TestFindLatestDatasetHardErrorAborts(t *testing.T) {
	calls := 0
	boom := fmt.Errorf("tls handshake failed")
	fetch := func(_ context.Context, _ time.Time) ([]map[string]string, error) {
		calls++
		if calls == 1 {
			return nil, interfaces.ErrNotFound
		}
		return nil, boom
	}

	_, err := findLatestDataset(context.Background(), fetch, day("2025-01-09"), 10)
	if err == nil {
		t.Fatal("expected hard error to abort the walk")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (no attempts past a hard failure)", calls)
	}
}

func TestFindLatestDatasetExhaustsWindow(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, _ time.Time) ([]map[string]string, error) {
		calls++
		return nil, interfaces.ErrNotFound
	}

	_, err := findLatestDataset(context.Background(), fetch, day("2025-01-09"), 3)
	if err == nil {
		t.Fatal("expected error after exhausting the window")
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (base date plus 3 lookback days)", calls)
	}
}

func TestFindLatestDatasetWrappedNotFound(t *testing.T) {
	// Clients wrap ErrNotFound with the URL; the walk must still see it.
	fetch := func(_ context.Context, date time.Time) ([]map[string]string, error) {
		if date.Format("2006-01-02") == "2025-01-08" {
			return []map[string]string{{"SYMBOL": "TCS"}}, nil
		}
		return nil, fmt.Errorf("https://example.com/file.zip: %w", interfaces.ErrNotFound)
	}

	dataset, err := findLatestDataset(context.Background(), fetch, day("2025-01-09"), 5)
	if err != nil {
		t.Fatalf("findLatestDataset failed: %v", err)
	}
	if dataset.Date != "2025-01-08" {
		t.Errorf("date = %q, want 2025-01-08", dataset.Date)
	}
}
