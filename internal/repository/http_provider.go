package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"OraclePortfolio/internal/domain/models"
	pkghttp "OraclePortfolio/pkg/http"
	applogger "OraclePortfolio/pkg/logger"
)

type indicatorResponse struct {
	Country    string             `json:"country"`
	Indicators map[string]float64 `json:"indicators"`
}

// HTTPProvider fetches indicators from a remote service: GET {base}/indicators?country=XXX.
type HTTPProvider struct {
	client  *pkghttp.Client
	baseURL string
	l       *applogger.Logger
}

func NewHTTPProvider(client *pkghttp.Client, baseURL string, l *applogger.Logger) *HTTPProvider {
	return &HTTPProvider{client: client, baseURL: strings.TrimRight(baseURL, "/"), l: l}
}

func (p *HTTPProvider) Name() string { return "http" }

func (p *HTTPProvider) Latest(ctx context.Context, country string) (models.IndicatorSet, error) {
	var resp indicatorResponse
	err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         p.baseURL + "/indicators",
		QueryParams: map[string][]string{"country": {strings.ToUpper(country)}},
	}, &resp)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("http %s: %w", country, models.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("http %s: %w", country, err)
	}

	set, unknown := models.IndicatorSetFromMap(resp.Indicators)
	if len(unknown) > 0 {
		p.l.Debug("indicator service returned unknown indicators",
			applogger.String("country", country),
			applogger.Strings("indicators", unknown))
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("http %s: %w", country, models.ErrDataUnavailable)
	}
	return set, nil
}
