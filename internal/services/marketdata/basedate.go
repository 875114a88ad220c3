package marketdata

import (
	"context"
	"time"

	"github.com/niveshapp/nivesh/internal/common"
)

// resolveBaseDate determines "today" in exchange trading-day terms: the
// starting point for the lookback walk. Preference order: the configured
// override date, the timestamp the exchange itself reports, then the wall
// clock in the exchange timezone. The remote step degrades silently — a
// base date is always produced.
func (s *Service) resolveBaseDate(ctx context.Context) time.Time {
	if s.config.BaseDate != "" {
		if parsed, err := time.ParseInLocation(common.DateKeyLayout, s.config.BaseDate, time.UTC); err == nil {
			return parsed
		}
		s.logger.Warn().Str("base_date", s.config.BaseDate).Msg("Ignoring unparseable base date override")
	}

	if remote, err := s.nse.FetchMarketTimestamp(ctx); err == nil && !remote.IsZero() {
		return remote
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to resolve exchange base date, falling back to local clock")
	}

	return common.DateInZone(s.now(), s.config.Timezone)
}
