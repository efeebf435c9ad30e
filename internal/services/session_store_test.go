package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarlsen/tradescribe/internal/database"
	"github.com/mkarlsen/tradescribe/internal/models"
	"github.com/mkarlsen/tradescribe/internal/wizard"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := database.NewRedisClientFromAddr(mr.Addr())
	t.Cleanup(client.Close)
	return NewSessionStore(client, time.Hour, nil), mr
}

func storeTestSession() *wizard.Session {
	s := wizard.NewSession()
	s.SetFile("trades.csv")
	s.UploadSuccess(models.UploadBatch{
		BatchID: "batch-7",
		Trades: []models.ParsedTrade{
			{ID: "t1", Ticker: "AAPL", Status: models.TradeStatusOpen, IsValid: true},
			{ID: "t2", Ticker: "TSLA", Status: models.TradeStatusOpen, IsValid: true},
		},
		Summary: models.UploadSummary{TotalRows: 2, ValidTrades: 2},
	})
	s.ApproveTrade("t1", nil, "looks good")
	return s
}

func TestSessionStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "user-1", storeTestSession()))

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, wizard.StepReview, loaded.Step)
	assert.Equal(t, "batch-7", loaded.BatchID)
	assert.Equal(t, 1, loaded.ApprovedCount)
	assert.Equal(t, 1, loaded.PendingCount)
	require.NotNil(t, loaded.TradeDecision("t1"))
	assert.Equal(t, "looks good", loaded.TradeDecision("t1").Notes)
}

func TestSessionStore_LoadMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_ChecksumMismatchFails(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "user-1", storeTestSession()))

	// Tamper with the stored snapshot behind the checksum's back.
	raw, err := mr.Get("tradescribe:import_session:user-1")
	require.NoError(t, err)
	var env sessionEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	env.Snapshot.ApprovedCount = 99
	tampered, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, mr.Set("tradescribe:import_session:user-1", string(tampered)))

	_, err = store.Load(ctx, "user-1")
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestSessionStore_Delete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "user-1", storeTestSession()))

	require.NoError(t, store.Delete(ctx, "user-1"))

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionStore_SaveSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.Save(context.Background(), "user-1", storeTestSession()))

	ttl := mr.TTL("tradescribe:import_session:user-1")
	assert.Equal(t, time.Hour, ttl)
}
