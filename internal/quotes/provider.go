// Package quotes holds the outside-world pieces of the quote ledger: the
// HTTP quote provider and the Redis cache of today's quote.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iliyamo/soulspace-ledger/internal/ledger"
	"github.com/iliyamo/soulspace-ledger/internal/model"
)

// DefaultURL returns one random quote of 50 to 200 characters.
const DefaultURL = "https://api.quotable.io/random?minLength=50&maxLength=200"

const maxBody = 64 << 10

// Provider draws random quotes from a quotable-compatible HTTP API.
type Provider struct {
	url    string
	client *http.Client
}

// NewProvider returns a provider for url. timeout bounds each request on
// top of whatever deadline the caller's context carries.
func NewProvider(url string, timeout time.Duration) *Provider {
	if url == "" {
		url = DefaultURL
	}
	return &Provider{url: url, client: &http.Client{Timeout: timeout}}
}

// quotable's wire shape.
type apiQuote struct {
	ID      string   `json:"_id"`
	Content string   `json:"content"`
	Author  string   `json:"author"`
	Tags    []string `json:"tags"`
}

// Draw fetches one quote. Every failure wraps ledger.ErrProviderUnavailable.
// The method value p.Draw satisfies ledger.Supplier.
func (p *Provider) Draw(ctx context.Context) (model.Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ledger.ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ledger.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return model.Quote{}, fmt.Errorf("%w: status %d", ledger.ErrProviderUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: read body: %v", ledger.ErrProviderUnavailable, err)
	}
	q, err := decode(body)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ledger.ErrProviderUnavailable, err)
	}
	return model.Quote{ExternalID: q.ID, Content: q.Content, Author: q.Author, Tags: q.Tags}, nil
}

// decode accepts a single quote object or an array holding at least one.
func decode(body []byte) (apiQuote, error) {
	var one apiQuote
	if err := json.Unmarshal(body, &one); err == nil {
		return one, nil
	}
	var many []apiQuote
	if err := json.Unmarshal(body, &many); err != nil {
		return apiQuote{}, fmt.Errorf("decode quote: %w", err)
	}
	if len(many) == 0 {
		return apiQuote{}, fmt.Errorf("decode quote: empty list")
	}
	return many[0], nil
}
