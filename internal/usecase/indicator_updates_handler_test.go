package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	pkgkafka "OraclePortfolio/pkg/kafka"
	applogger "OraclePortfolio/pkg/logger"
)

func TestIndicatorUpdates_StoresAndInvalidates(t *testing.T) {
	store := &memoryStore{}
	inv := &invalidations{}
	h := NewIndicatorUpdatesHandler("oracle.indicators", store, inv, &recordingMetrics{}, applogger.Nop())
	assert.Equal(t, "oracle.indicators", h.Topic())

	msg := []byte(`{"country":"fra","indicators":{"pmi":52.5,"copper_price":9100,"vibes":1},"observed_at":"2026-03-01T00:00:00Z","source":"insee"}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, store.snaps, 1)
	snap := store.snaps[0]
	assert.Equal(t, "FRA", snap.Country)
	assert.Equal(t, "insee", snap.Source)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), snap.ObservedAt)
	assert.Equal(t, models.IndicatorSet{models.IndicatorPMI: 52.5, models.IndicatorCopperPrice: 9100}, snap.Indicators)
	assert.Equal(t, []string{"FRA"}, inv.countries)
}

func TestIndicatorUpdates_DefaultsObservationTime(t *testing.T) {
	store := &memoryStore{}
	h := NewIndicatorUpdatesHandler("t", store, nil, &recordingMetrics{}, applogger.Nop())
	h.now = func() time.Time { return fixedNow }

	require.NoError(t, h.Handle(context.Background(), []byte(`{"country":"USA","indicators":{"pmi":50}}`)))
	require.Len(t, store.snaps, 1)
	assert.Equal(t, fixedNow, store.snaps[0].ObservedAt)
}

func TestIndicatorUpdates_RejectsBadPayloads(t *testing.T) {
	m := &recordingMetrics{}
	h := NewIndicatorUpdatesHandler("t", &memoryStore{}, nil, m, applogger.Nop())

	tests := []struct {
		name string
		in   string
		code string
	}{
		{"not json", `{"country":`, "ERR_DECODE"},
		{"unknown country", `{"country":"ZZZ","indicators":{"pmi":50}}`, "ERR_COUNTRY"},
		{"no usable indicators", `{"country":"FRA","indicators":{"vibes":1}}`, "ERR_EMPTY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Handle(context.Background(), []byte(tt.in))
			var he *pkgkafka.HookError
			require.True(t, errors.As(err, &he))
			assert.Equal(t, tt.code, he.Code)
		})
	}
	assert.Equal(t, []string{"consumer_unmarshal", "consumer_country", "consumer_empty"}, m.errors)
}

func TestIndicatorUpdates_StoreErrorIsRetryable(t *testing.T) {
	store := &memoryStore{err: errors.New("clickhouse timeout")}
	inv := &invalidations{}
	h := NewIndicatorUpdatesHandler("t", store, inv, &recordingMetrics{}, applogger.Nop())

	err := h.Handle(context.Background(), []byte(`{"country":"DEU","indicators":{"pmi":47}}`))
	require.Error(t, err)
	var he *pkgkafka.HookError
	assert.False(t, errors.As(err, &he))
	assert.Empty(t, inv.countries)
}
