// Package geo provides location autocomplete backed by a Nominatim-compatible
// geocoding service.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"resumeflow/internal/config"
	"resumeflow/internal/errors"
	"resumeflow/internal/types"
)

// userAgent identifies this service to the geocoder; Nominatim's usage
// policy rejects requests without one.
const userAgent = "resumeflow/1.0"

// Client queries the geocoding service for location suggestions
type Client struct {
	baseURL     string
	resultLimit int
	httpClient  *http.Client
	logger      *errors.Logger
}

// NewClient creates a geocoder client from configuration
func NewClient(cfg config.GeoConfig, logger *errors.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		resultLimit: cfg.ResultLimit,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// nominatimPlace is the geocoder's wire format
type nominatimPlace struct {
	DisplayName string    `json:"display_name"`
	BoundingBox [4]string `json:"boundingbox"`
	Lat         string    `json:"lat"`
	Lon         string    `json:"lon"`
}

// Search returns location suggestions for a partial query. Blank queries
// return no results without touching the network.
func (c *Client) Search(ctx context.Context, query string) ([]types.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.resultLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.NewInternalError("REQUEST_BUILD_FAILED",
			"Failed to build geocoder request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			"Geocoder unreachable", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && c.logger != nil {
			c.logger.Warn("Failed to close geocoder response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
			fmt.Sprintf("geocoder returned status %d", resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	var raw []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.NewCollaboratorError(errors.ErrCodeCollaboratorFailed,
			"Failed to decode geocoder response", err)
	}

	places := make([]types.Place, len(raw))
	for i, p := range raw {
		places[i] = types.Place{
			DisplayName: p.DisplayName,
			BoundingBox: p.BoundingBox,
			Lat:         p.Lat,
			Lon:         p.Lon,
		}
	}

	if c.logger != nil {
		c.logger.Debug("Location search completed", "query", query, "results", len(places))
	}

	return places, nil
}
