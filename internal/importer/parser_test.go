package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/tradescribe/internal/models"
)

const sampleCSV = `ticker,open_date,close_date,amount,realized_pnl,status,legs,description
AAPL,2026-03-02,,-250.00,,OPEN,STO -1 AAPL 03/20/2026 180 P,CSP on pullback
AAPL,2026-03-03,2026-03-10,"$120.50",45.00,CLOSED,,sold the shares
TSLA,03/04/2026,,(80.00),,,,starter position
AAPL,2026-03-02,,-250.00,,OPEN,STO -1 AAPL 03/20/2026 180 P,same row again
,2026-03-05,,10.00,,OPEN,,no ticker
`

func TestParse_SummaryAndFlags(t *testing.T) {
	p := NewParser(nil)

	batch, err := p.Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.NotEmpty(t, batch.BatchID)
	assert.Equal(t, 5, batch.Summary.TotalRows)
	assert.Equal(t, 3, batch.Summary.ValidTrades)
	assert.Equal(t, 1, batch.Summary.InvalidTrades)
	assert.Equal(t, 1, batch.Summary.Duplicates)
	require.Len(t, batch.Trades, 5)

	dup := batch.Trades[3]
	assert.True(t, dup.IsDuplicate)
	assert.True(t, dup.IsValid)
	assert.NotEmpty(t, dup.Warnings)

	invalid := batch.Trades[4]
	assert.False(t, invalid.IsValid)
	assert.Contains(t, invalid.Warnings, "missing ticker")
}

func TestParse_FieldConversion(t *testing.T) {
	p := NewParser(nil)

	batch, err := p.Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	first := batch.Trades[0]
	assert.Equal(t, "AAPL", first.Ticker)
	assert.True(t, first.DebitCredit.Equal(decimal.NewFromFloat(-250.00)))
	assert.Equal(t, models.TradeStatusOpen, first.Status)
	assert.Equal(t, models.StrategyCashSecuredPut, first.Strategy)
	assert.Nil(t, first.ClosedAt)
	assert.NotEmpty(t, first.RawSource)

	second := batch.Trades[1]
	assert.True(t, second.DebitCredit.Equal(decimal.NewFromFloat(120.50)))
	require.NotNil(t, second.RealizedPnL)
	assert.True(t, second.RealizedPnL.Equal(decimal.NewFromFloat(45.00)))
	require.NotNil(t, second.ClosedAt)
	assert.Equal(t, models.TradeStatusClosed, second.Status)
	assert.Equal(t, models.StrategyShares, second.Strategy)

	// Parenthesized amounts are debits; US date layout accepted.
	third := batch.Trades[2]
	assert.True(t, third.DebitCredit.Equal(decimal.NewFromFloat(-80.00)))
	assert.Equal(t, 2026, third.OpenedAt.Year())
}

func TestParse_HeaderAliases(t *testing.T) {
	p := NewParser(nil)
	csv := "symbol,opened,debitcredit\nNVDA,2026-01-15,-500\n"

	batch, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, batch.Trades, 1)
	assert.Equal(t, "NVDA", batch.Trades[0].Ticker)
	assert.True(t, batch.Trades[0].IsValid)
}

func TestParse_MissingTickerColumnFails(t *testing.T) {
	p := NewParser(nil)

	_, err := p.Parse(strings.NewReader("foo,bar\n1,2\n"))
	assert.Error(t, err)
}

func TestParse_UnknownStatusWarnsAndDefaultsOpen(t *testing.T) {
	p := NewParser(nil)
	csv := "ticker,open_date,amount,status\nAMD,2026-02-01,-100,LIMBO\n"

	batch, err := p.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	tr := batch.Trades[0]
	assert.Equal(t, models.TradeStatusOpen, tr.Status)
	assert.True(t, tr.IsValid)
	assert.NotEmpty(t, tr.Warnings)
}
