// Package importer turns uploaded broker CSV exports into parsed-trade
// batches for the import wizard. Rows that fail validation or duplicate an
// earlier row in the same file are kept in the batch but flagged so the
// wizard never queues them for review.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkarlsen/tradescribe/internal/models"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Parser parses broker CSV exports into upload batches.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a CSV parser. A nil logger disables logging.
func NewParser(logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger}
}

// Parse reads a CSV export and returns the batch the wizard ingests.
// Recognized columns (header names are case-insensitive): ticker,
// open_date, close_date, amount, realized_pnl, status, legs, description.
// Column order does not matter; unknown columns are ignored.
func (p *Parser) Parse(r io.Reader) (*models.UploadBatch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols["ticker"]; !ok {
		return nil, fmt.Errorf("CSV header has no ticker column")
	}

	batch := &models.UploadBatch{BatchID: uuid.NewString()}
	seen := make(map[string]bool)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}
		batch.Summary.TotalRows++

		trade := p.parseRow(record, cols)
		if trade.IsValid {
			fp := fingerprint(trade)
			if seen[fp] {
				trade.IsDuplicate = true
				trade.Warnings = append(trade.Warnings, "duplicate of an earlier row in this file")
			}
			seen[fp] = true
		}

		switch {
		case !trade.IsValid:
			batch.Summary.InvalidTrades++
		case trade.IsDuplicate:
			batch.Summary.Duplicates++
		default:
			batch.Summary.ValidTrades++
		}
		batch.Trades = append(batch.Trades, trade)
	}

	p.logger.Info("parsed upload",
		zap.String("batch_id", batch.BatchID),
		zap.Int("total_rows", batch.Summary.TotalRows),
		zap.Int("valid", batch.Summary.ValidTrades),
		zap.Int("invalid", batch.Summary.InvalidTrades),
		zap.Int("duplicates", batch.Summary.Duplicates),
	)
	return batch, nil
}

func (p *Parser) parseRow(record []string, cols map[string]int) models.ParsedTrade {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	trade := models.ParsedTrade{
		ID:          uuid.NewString(),
		Ticker:      strings.ToUpper(field("ticker")),
		Legs:        field("legs"),
		Description: field("description"),
		IsValid:     true,
	}
	if raw, err := json.Marshal(record); err == nil {
		trade.RawSource = raw
	}

	if trade.Ticker == "" {
		trade.IsValid = false
		trade.Warnings = append(trade.Warnings, "missing ticker")
	}

	if opened, ok := parseDate(field("open_date")); ok {
		trade.OpenedAt = opened
	} else {
		trade.IsValid = false
		trade.Warnings = append(trade.Warnings, "missing or unparseable open date")
	}

	if raw := field("close_date"); raw != "" {
		if closed, ok := parseDate(raw); ok {
			trade.ClosedAt = &closed
		} else {
			trade.Warnings = append(trade.Warnings, "unparseable close date ignored")
		}
	}

	if amount, err := decimal.NewFromString(cleanAmount(field("amount"))); err == nil {
		trade.DebitCredit = amount
	} else if field("amount") != "" {
		trade.IsValid = false
		trade.Warnings = append(trade.Warnings, "unparseable amount")
	}

	if raw := field("realized_pnl"); raw != "" {
		if pnl, err := decimal.NewFromString(cleanAmount(raw)); err == nil {
			trade.RealizedPnL = &pnl
		} else {
			trade.Warnings = append(trade.Warnings, "unparseable realized P/L ignored")
		}
	}

	trade.Status = parseStatus(field("status"), &trade)
	trade.Strategy, trade.StrategyLabel = ClassifyStrategy(trade.Legs)
	return trade
}

func parseStatus(raw string, trade *models.ParsedTrade) models.TradeStatus {
	switch strings.ToUpper(raw) {
	case string(models.TradeStatusOpen), "":
		if raw == "" && trade.ClosedAt != nil {
			return models.TradeStatusClosed
		}
		return models.TradeStatusOpen
	case string(models.TradeStatusClosed):
		return models.TradeStatusClosed
	case string(models.TradeStatusExpired):
		return models.TradeStatusExpired
	case string(models.TradeStatusAssigned):
		return models.TradeStatusAssigned
	default:
		trade.Warnings = append(trade.Warnings, fmt.Sprintf("unknown status %q, assuming OPEN", raw))
		return models.TradeStatusOpen
	}
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		key = strings.ReplaceAll(key, " ", "_")
		cols[key] = i
	}
	// Common broker aliases.
	alias := map[string]string{
		"symbol":      "ticker",
		"opened":      "open_date",
		"closed":      "close_date",
		"debitcredit": "amount",
		"pnl":         "realized_pnl",
	}
	for from, to := range alias {
		if i, ok := cols[from]; ok {
			if _, taken := cols[to]; !taken {
				cols[to] = i
			}
		}
	}
	return cols
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cleanAmount(raw string) string {
	raw = strings.ReplaceAll(raw, "$", "")
	raw = strings.ReplaceAll(raw, ",", "")
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = "-" + raw[1:len(raw)-1]
	}
	return strings.TrimSpace(raw)
}

func fingerprint(t models.ParsedTrade) string {
	return fmt.Sprintf("%s|%s|%s", t.Ticker, t.OpenedAt.Format(time.RFC3339), t.DebitCredit.String())
}
