package marketdata

import "strings"

// commonTickers feeds the autocomplete endpoint. Large caps, index ETFs
// and the usual options-heavy names journal users log most.
var commonTickers = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "META", "NVDA", "JPM", "V", "JNJ",
	"WMT", "PG", "UNH", "DIS", "MA", "HD", "BAC", "NFLX", "ADBE", "XOM",
	"SPY", "QQQ", "DIA", "IWM", "VTI", "VOO", "GLD", "SLV", "TLT", "VXX",
	"AMD", "INTC", "PYPL", "CRM", "ORCL", "CSCO", "PEP", "KO", "NKE", "MCD",
}

// Search returns up to limit common tickers starting with the query,
// case-insensitive. An empty query returns nothing.
func Search(query string, limit int) []string {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}
	out := make([]string, 0, limit)
	for _, t := range commonTickers {
		if strings.HasPrefix(t, query) {
			out = append(out, t)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
