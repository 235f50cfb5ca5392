package repository

import (
	"context"
	"fmt"
	"strings"

	"OraclePortfolio/internal/domain/models"
	applogger "OraclePortfolio/pkg/logger"
)

// StaticProvider serves fixed indicator values from configuration.
type StaticProvider struct {
	data map[string]models.IndicatorSet
}

// NewStaticProvider converts the configured per-country maps. Unknown indicator names are logged and skipped.
func NewStaticProvider(raw map[string]map[string]float64, l *applogger.Logger) *StaticProvider {
	data := make(map[string]models.IndicatorSet, len(raw))
	for country, values := range raw {
		set, unknown := models.IndicatorSetFromMap(values)
		if len(unknown) > 0 {
			l.Warn("static provider skipped unknown indicators",
				applogger.String("country", country),
				applogger.Strings("indicators", unknown))
		}
		data[strings.ToUpper(country)] = set
	}
	return &StaticProvider{data: data}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) Latest(_ context.Context, country string) (models.IndicatorSet, error) {
	set, ok := p.data[strings.ToUpper(country)]
	if !ok || len(set) == 0 {
		return nil, fmt.Errorf("static %s: %w", country, models.ErrDataUnavailable)
	}
	return set.Clone(), nil
}
