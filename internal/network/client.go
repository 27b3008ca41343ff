package network

import (
	"errors"
	"net/url"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/jimezsa/usajobsfn/internal/models"
)

var ErrRequestFailed = errors.New("request failed")

const DefaultTimeout = 30 * time.Second

// Doer sends a single request. *Client satisfies it; tests swap in fakes.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Client sends requests through one tls-client per proxy. The underlying
// clients are never reconfigured after construction, so Do may be called
// from several goroutines.
type Client struct {
	direct    tls_client.HttpClient
	rotator   *Rotator
	userAgent string
	build     func(proxy string) (tls_client.HttpClient, error)

	mu      sync.Mutex
	proxied map[string]tls_client.HttpClient
}

// NewClient builds a client that is safe to reuse across sub-requests.
// A nil rotator sends requests directly.
func NewClient(cfg models.ClientConfig, rotator *Rotator) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	build := func(proxy string) (tls_client.HttpClient, error) {
		options := []tls_client.HttpClientOption{
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithTimeoutMilliseconds(int(timeout / time.Millisecond)),
		}
		if proxy != "" {
			options = append(options, tls_client.WithProxyUrl(proxy))
		}
		return tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	}

	direct, err := build("")
	if err != nil {
		return nil, err
	}

	return &Client{
		direct:    direct,
		rotator:   rotator,
		userAgent: cfg.UserAgent,
		build:     build,
		proxied:   map[string]tls_client.HttpClient{},
	}, nil
}

func (c *Client) Do(req *fhttp.Request) (*fhttp.Response, error) {
	proxy, err := c.nextProxy()
	if err != nil {
		return nil, err
	}
	httpClient, err := c.clientFor(proxy)
	if err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	if proxy != nil {
		c.rotator.Report(proxy, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) nextProxy() (*url.URL, error) {
	if c.rotator == nil {
		return nil, nil
	}
	return c.rotator.Next()
}

// clientFor returns the client bound to proxy, creating it on first use.
func (c *Client) clientFor(proxy *url.URL) (tls_client.HttpClient, error) {
	if proxy == nil {
		return c.direct, nil
	}
	key := proxy.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.proxied[key]; ok {
		return existing, nil
	}
	created, err := c.build(key)
	if err != nil {
		return nil, err
	}
	c.proxied[key] = created
	return created, nil
}
