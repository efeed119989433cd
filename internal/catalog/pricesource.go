package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// PriceSource resolves the current unit price for a product code.
type PriceSource interface {
	Lookup(ctx context.Context, code string) (float64, error)
}

// HTTPPriceSource queries the upstream price service. The upstream exists in
// two deployments with different response envelopes; both are resolved here
// so callers only ever see a plain price.
type HTTPPriceSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPriceSource constructs a price source against the given base URL.
func NewHTTPPriceSource(baseURL string, client *http.Client) *HTTPPriceSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPriceSource{baseURL: baseURL, client: client}
}

type priceResponse struct {
	// Flat shape: {"price": 12.5}
	Price *float64 `json:"price"`
	// Enveloped shape: {"data": {"unit_price": 12.5}}
	Data *struct {
		UnitPrice *float64 `json:"unit_price"`
	} `json:"data"`
}

// Lookup fetches the unit price for one product code.
func (s *HTTPPriceSource) Lookup(ctx context.Context, code string) (float64, error) {
	u := fmt.Sprintf("%s/prices/%s", s.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price lookup %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("price lookup %s: %w", code, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price lookup %s: unexpected status %d", code, resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("price lookup %s: decode: %w", code, err)
	}
	switch {
	case body.Price != nil:
		return *body.Price, nil
	case body.Data != nil && body.Data.UnitPrice != nil:
		return *body.Data.UnitPrice, nil
	default:
		return 0, fmt.Errorf("price lookup %s: response carries no price", code)
	}
}
