package marketdata

import (
	"sort"

	"github.com/niveshapp/nivesh/internal/models"
)

// upsertHistory records a close for a trading date in a symbol's history,
// preserving the invariant that the sequence is strictly sorted ascending
// by date with at most one entry per date. A nil close is a no-op. When
// maxDays > 0 the sequence is trimmed from the front (oldest first) after
// insertion.
//
// The common case is an append (each refresh lands on or after the last
// stored date); same-day re-refreshes overwrite the last entry. Late
// out-of-order arrivals use a binary-search insert so a stream of them
// stays O(log n) per call instead of re-sorting the whole sequence.
func upsertHistory(history []models.HistoryPoint, date string, close *float64, maxDays int) []models.HistoryPoint {
	if close == nil {
		return history
	}

	if n := len(history); n > 0 && history[n-1].Date == date {
		history[n-1].Close = *close
		return history
	}

	if n := len(history); n == 0 || date > history[n-1].Date {
		history = append(history, models.HistoryPoint{Date: date, Close: *close})
		return trimHistory(history, maxDays)
	}

	// Out-of-order arrival: overwrite in place or insert at the sorted
	// position.
	idx := sort.Search(len(history), func(i int) bool {
		return history[i].Date >= date
	})
	if idx < len(history) && history[idx].Date == date {
		history[idx].Close = *close
		return history
	}
	history = append(history, models.HistoryPoint{})
	copy(history[idx+1:], history[idx:])
	history[idx] = models.HistoryPoint{Date: date, Close: *close}
	return trimHistory(history, maxDays)
}

func trimHistory(history []models.HistoryPoint, maxDays int) []models.HistoryPoint {
	if maxDays > 0 && len(history) > maxDays {
		history = history[len(history)-maxDays:]
	}
	return history
}

// updateHistoryFromQuotes upserts every quote's close into the bucket's
// per-symbol history for the given trading date.
func updateHistoryFromQuotes(bucket *models.ExchangeBucket, quotes map[string]models.QuoteRecord, date string, maxDays int) {
	for symbol, quote := range quotes {
		close := quote.Close
		bucket.History[symbol] = upsertHistory(bucket.History[symbol], date, &close, maxDays)
	}
}
