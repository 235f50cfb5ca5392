package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"OraclePortfolio/internal/domain/models"
	domrepo "OraclePortfolio/internal/domain/repository"
	pkgkafka "OraclePortfolio/pkg/kafka"
	applogger "OraclePortfolio/pkg/logger"
)

// Invalidator drops cached indicators for a country.
type Invalidator interface {
	Invalidate(ctx context.Context, country string) error
}

// IndicatorUpdatesHandler consumes indicator snapshots, stores them and
// invalidates the cached provider entry for the country.
type IndicatorUpdatesHandler struct {
	topic   string
	store   domrepo.IndicatorStore
	cache   Invalidator
	metrics domrepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

// NewIndicatorUpdatesHandler wires the handler. store and cache may be nil.
func NewIndicatorUpdatesHandler(topic string, store domrepo.IndicatorStore, cache Invalidator, metrics domrepo.Metrics, l *applogger.Logger) *IndicatorUpdatesHandler {
	return &IndicatorUpdatesHandler{topic: topic, store: store, cache: cache, metrics: metrics, log: l, now: time.Now}
}

func (h *IndicatorUpdatesHandler) Topic() string { return h.topic }

// incoming message schema: {country, indicators: {name: value}, observed_at, source}
func (h *IndicatorUpdatesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Country    string             `json:"country"`
		Indicators map[string]float64 `json:"indicators"`
		ObservedAt time.Time          `json:"observed_at"`
		Source     string             `json:"source"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return &pkgkafka.HookError{Code: "ERR_DECODE", Err: err}
	}

	country, ok := models.LookupCountry(m.Country)
	if !ok {
		h.metrics.RecordError("consumer_country")
		return &pkgkafka.HookError{Code: "ERR_COUNTRY", Err: fmt.Errorf("%w: %q", models.ErrUnsupportedCountry, m.Country)}
	}
	set, unknown := models.IndicatorSetFromMap(m.Indicators)
	if len(unknown) > 0 {
		h.log.Debug("ignoring unknown indicators", applogger.String("country", country.Code), applogger.Strings("keys", unknown))
	}
	if len(set.Names()) == 0 {
		h.metrics.RecordError("consumer_empty")
		return &pkgkafka.HookError{Code: "ERR_EMPTY", Err: models.ErrDataUnavailable}
	}
	if m.ObservedAt.IsZero() {
		m.ObservedAt = h.now()
	}
	// end-to-end lag from observation to ingestion
	h.metrics.RecordLatency("indicator_ingest_lag", h.now().Sub(m.ObservedAt).Seconds())

	snap := models.IndicatorSnapshot{
		Country:    country.Code,
		Indicators: set,
		ObservedAt: m.ObservedAt.UTC(),
		Source:     m.Source,
	}
	if h.store != nil {
		start := time.Now()
		err := h.store.StoreSnapshot(ctx, snap)
		h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
		if err != nil {
			h.metrics.RecordError("consumer_store")
			return fmt.Errorf("store snapshot for %s: %w", country.Code, err)
		}
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, country.Code); err != nil {
			h.log.Warn("invalidate indicator cache", applogger.String("country", country.Code), applogger.Error(err))
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*IndicatorUpdatesHandler)(nil)
