// Package usajobs queries the USAJOBS search API for a single keyword.
package usajobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/jimezsa/usajobsfn/internal/models"
	"github.com/jimezsa/usajobsfn/internal/network"
	"github.com/rs/zerolog"
)

const (
	DefaultEndpoint    = "https://data.usajobs.gov/api/search"
	DefaultUserAgent   = "JobSearchApp/1.0"
	DefaultLocation    = "United States"
	DefaultWhoMayApply = "public"
)

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.Code)
}

type searchResponse struct {
	SearchResult struct {
		SearchResultItems []models.JobRecord `json:"SearchResultItems"`
	} `json:"SearchResult"`
}

type Client struct {
	http      network.Doer
	endpoint  string
	userAgent string
	logger    zerolog.Logger
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(doer network.Doer, opts ...Option) *Client {
	c := &Client{
		http:      doer,
		endpoint:  DefaultEndpoint,
		userAgent: DefaultUserAgent,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one sub-request and returns the result items in API order.
func (c *Client) Search(ctx context.Context, credential string, params models.SearchParams) ([]models.JobRecord, error) {
	target, err := c.buildURL(params)
	if err != nil {
		return nil, err
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization-Key", credential)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", target).Msg("requesting job search")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("job search response")

	if resp.StatusCode != fhttp.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	items := decoded.SearchResult.SearchResultItems
	if items == nil {
		items = []models.JobRecord{}
	}
	return items, nil
}

func (c *Client) buildURL(params models.SearchParams) (string, error) {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	values := base.Query()
	values.Set("Keyword", params.Keyword)
	values.Set("LocationName", params.LocationName)
	values.Set("WhoMayApply", params.WhoMayApply)
	base.RawQuery = values.Encode()
	return base.String(), nil
}
