package marketdata

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestResolveBaseDateConfigOverrideWins(t *testing.T) {
	svc := newTestService(&mockNSEClient{
		timestampFn: func(_ context.Context) (time.Time, error) {
			t.Error("remote timestamp must not be consulted when an override is set")
			return time.Time{}, nil
		},
	}, &mockBSEClient{}, &mockStore{})
	svc.config.BaseDate = "2024-12-31"

	got := svc.resolveBaseDate(context.Background())
	if got.Format("2006-01-02") != "2024-12-31" {
		t.Errorf("base date = %s, want 2024-12-31", got.Format("2006-01-02"))
	}
}

func TestResolveBaseDateUsesExchangeTimestamp(t *testing.T) {
	remote := day("2025-01-08")
	svc := newTestService(&mockNSEClient{
		timestampFn: func(_ context.Context) (time.Time, error) {
			return remote, nil
		},
	}, &mockBSEClient{}, &mockStore{})
	svc.config.BaseDate = ""

	if got := svc.resolveBaseDate(context.Background()); !got.Equal(remote) {
		t.Errorf("base date = %v, want exchange-reported %v", got, remote)
	}
}

func TestResolveBaseDateFallsBackToLocalClock(t *testing.T) {
	svc := newTestService(&mockNSEClient{
		timestampFn: func(_ context.Context) (time.Time, error) {
			return time.Time{}, fmt.Errorf("unreachable")
		},
	}, &mockBSEClient{}, &mockStore{})
	svc.config.BaseDate = ""
	// 20:00 UTC on Jan 8 is already Jan 9 in Asia/Kolkata.
	svc.now = func() time.Time {
		return time.Date(2025, 1, 8, 20, 0, 0, 0, time.UTC)
	}

	got := svc.resolveBaseDate(context.Background())
	if got.Format("2006-01-02") != "2025-01-09" {
		t.Errorf("base date = %s, want exchange-local calendar day 2025-01-09", got.Format("2006-01-02"))
	}
}

func TestResolveBaseDateIgnoresBadOverride(t *testing.T) {
	remote := day("2025-01-08")
	svc := newTestService(&mockNSEClient{
		timestampFn: func(_ context.Context) (time.Time, error) {
			return remote, nil
		},
	}, &mockBSEClient{}, &mockStore{})
	svc.config.BaseDate = "January 8"

	if got := svc.resolveBaseDate(context.Background()); !got.Equal(remote) {
		t.Errorf("base date = %v, want fallthrough to exchange timestamp", got)
	}
}
