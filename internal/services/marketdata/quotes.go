package marketdata

import (
	"strings"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/models"
)

// fieldValue resolves a logical field from a raw row by trying an ordered
// list of candidate column names. Upstream files have renamed columns
// across generations; resolving through one helper keeps the spellings in
// one place per field.
func fieldValue(row map[string]string, names ...string) string {
	for _, name := range names {
		if value, ok := row[name]; ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// buildQuote assembles one QuoteRecord from parsed close/prevClose values.
// Returns nil when the close is missing — a quote without a close is never
// stored. Change fields are derived only when the previous close is
// present and nonzero.
func buildQuote(symbol string, close, prevClose *float64, asOf string) *models.QuoteRecord {
	if close == nil {
		return nil
	}
	quote := &models.QuoteRecord{
		Symbol:    symbol,
		Close:     *close,
		PrevClose: prevClose,
		AsOf:      asOf,
	}
	if prevClose != nil && *prevClose != 0 {
		change := *close - *prevClose
		changePercent := change / *prevClose * 100
		quote.Change = &change
		quote.ChangePercent = &changePercent
	}
	return quote
}

// buildNSEQuotes turns raw NSE bhavcopy rows into quote records. Rows
// tagged with a series other than EQ are ignored; a blank series passes
// (newer file generations dropped the column).
func buildNSEQuotes(rows []map[string]string, tradingDate string) map[string]models.QuoteRecord {
	quotes := make(map[string]models.QuoteRecord)
	for _, row := range rows {
		series := strings.ToUpper(strings.TrimSpace(fieldValue(row, "SERIES", "Series")))
		if series != "" && series != "EQ" {
			continue
		}
		symbol := NormalizeSymbol(fieldValue(row, "SYMBOL", "Symbol"))
		if symbol == "" {
			continue
		}
		close := common.ParseNumber(fieldValue(row, "CLOSE", "Close", "CLOSE_PRICE", "ClsPric"))
		prevClose := common.ParseNumber(fieldValue(row, "PREVCLOSE", "PrevClose", "PREV_CLOSE", "PrvsClsgPric"))
		if quote := buildQuote(symbol, close, prevClose, tradingDate); quote != nil {
			quotes[symbol] = *quote
		}
	}
	return quotes
}

// buildBSEQuotes turns raw BSE bhavcopy rows into quote records. The
// symbol comes from an explicit column when present; otherwise the row's
// company name is resolved through the unique-name lookup. Rows that
// resolve to no symbol are dropped.
func buildBSEQuotes(rows []map[string]string, tradingDate string, nameMap map[string]string) map[string]models.QuoteRecord {
	quotes := make(map[string]models.QuoteRecord)
	for _, row := range rows {
		symbol := resolveBSESymbol(row, nameMap)
		if symbol == "" {
			continue
		}
		close := common.ParseNumber(fieldValue(row, "CLOSE", "Close", "CLOSE_PRICE", "ClsPric"))
		prevClose := common.ParseNumber(fieldValue(row, "PREVCLOSE", "PREV_CLOSE", "PrevClose", "PrvsClsgPric"))
		if quote := buildQuote(symbol, close, prevClose, tradingDate); quote != nil {
			quotes[symbol] = *quote
		}
	}
	return quotes
}

func resolveBSESymbol(row map[string]string, nameMap map[string]string) string {
	if symbol := NormalizeSymbol(fieldValue(row, "SYMBOL", "SCRIP", "Scrip", "SC_SYMBOL", "SC SYMBOL")); symbol != "" {
		return symbol
	}
	nameKey := NormalizeNameKey(fieldValue(row, "SC_NAME", "SC NAME", "SCRIP_NAME", "SCRIP NAME"))
	return nameMap[nameKey]
}
