package marketdata

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Market session window in exchange-local minutes since midnight.
const (
	marketOpenMinutes  = 9*60 + 15  // 09:15
	marketCloseMinutes = 15*60 + 30 // 15:30
)

// MarketHours answers whether the exchange is currently in its trading
// session.
type MarketHours struct {
	location *time.Location
	now      func() time.Time // injectable clock for testing
}

// NewMarketHours creates a MarketHours for the given timezone. An
// unknown timezone leaves the location nil, and IsOpen then fails open:
// wrongly treating a shut market as open only costs a fetch, wrongly
// treating an open market as shut would suppress fresh data.
func NewMarketHours(timezone string) *MarketHours {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = nil
	}
	return &MarketHours{location: loc, now: time.Now}
}

// IsOpen reports whether the exchange is open: a weekday, between the
// session open and close in the exchange timezone.
func (m *MarketHours) IsOpen() bool {
	if m.location == nil {
		return true
	}
	local := m.now().In(m.location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= marketOpenMinutes && minutes <= marketCloseMinutes
}

// ClosedFetchGuard rate-limits refresh attempts while the market is shut.
// A closed market cannot produce new data, so each cache key gets at most
// one upstream attempt per cooldown window. The cooldown tracks attempts,
// not outcomes: callers mark a key as soon as an attempt is permitted.
type ClosedFetchGuard struct {
	attempts *gocache.Cache
}

// NewClosedFetchGuard creates a guard with the given cooldown window.
func NewClosedFetchGuard(cooldown time.Duration) *ClosedFetchGuard {
	return &ClosedFetchGuard{
		attempts: gocache.New(cooldown, cooldown),
	}
}

// CanAttemptClosedFetch reports whether the key may attempt a fetch:
// true for any key not attempted within the cooldown, including keys
// never seen before.
func (g *ClosedFetchGuard) CanAttemptClosedFetch(key string) bool {
	_, found := g.attempts.Get(key)
	return !found
}

// MarkClosedFetchAttempt records an attempt for the key, starting its
// cooldown.
func (g *ClosedFetchGuard) MarkClosedFetchAttempt(key string) {
	g.attempts.Set(key, struct{}{}, gocache.DefaultExpiration)
}
