package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/metrics"
)

// Record is one raw object returned by the remote API.
type Record map[string]any

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

type Options struct {
	BaseURL         string
	Token           string
	MaxPages        int
	RateLimit       float64
	BreakerFailures int
	BreakerTimeout  time.Duration
	Logger          *zap.Logger
}

type Client struct {
	host       string
	token      string
	maxPages   int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	breakerSettings gobreaker.Settings
	mu              sync.Mutex
	breakers        map[string]*gobreaker.CircuitBreaker[[]byte]
}

// NewClient builds a client for the plant system API. The request timeout is
// carried by httpClient.
func NewClient(httpClient *http.Client, opts Options) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 300 * time.Second}
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}
	failures := opts.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	breakerTimeout := opts.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = time.Minute
	}
	c := &Client{
		host:       strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:      strings.TrimSpace(opts.Token),
		maxPages:   maxPages,
		httpClient: httpClient,
		logger:     opts.Logger,
		breakers:   map[string]*gobreaker.CircuitBreaker[[]byte]{},
	}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	c.breakerSettings = gobreaker.Settings{
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// 4xx means the API answered; only outages should trip the breaker.
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
				return true
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if c.logger != nil {
				c.logger.Warn("remote circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	}
	return c
}

// breaker returns the circuit breaker for one request target: the path plus
// its plant or region parameters. A plant that keeps failing opens only its
// own breaker.
func (c *Client) breaker(path string, query url.Values) *gobreaker.CircuitBreaker[[]byte] {
	key := path
	if len(query) > 0 {
		q := cloneValues(query)
		for _, k := range []string{"page", "start_date", "end_date"} {
			q.Del(k)
		}
		key = path + "?" + q.Encode()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[key]
	if !ok {
		settings := c.breakerSettings
		settings.Name = "plant-api " + key
		cb = gobreaker.NewCircuitBreaker[[]byte](settings)
		c.breakers[key] = cb
	}
	return cb
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.host == "" {
		return nil, fmt.Errorf("remote base url is empty")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return c.breaker(path, query).Execute(func() ([]byte, error) {
		fullURL := c.host + path
		if len(query) > 0 {
			fullURL = fullURL + "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode, Body: truncate(string(body), 500)}
		}
		return body, nil
	})
}

// GetRecords fetches path with query and follows page numbers while the
// response envelope reports more pages.
func (c *Client) GetRecords(ctx context.Context, path string, query url.Values) ([]Record, error) {
	out := make([]Record, 0)
	page := 1
	for {
		q := cloneValues(query)
		if page > 1 {
			q.Set("page", strconv.Itoa(page))
		}
		body, err := c.doRequest(ctx, path, q)
		if err != nil {
			metrics.FetchRequests.WithLabelValues(path, "error").Inc()
			return nil, err
		}
		metrics.FetchRequests.WithLabelValues(path, "ok").Inc()
		records, lastPage, err := parseRecords(body)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
		if lastPage <= page || page >= c.maxPages {
			return out, nil
		}
		page++
	}
}

type envelope struct {
	Data        []Record `json:"data"`
	LastPage    int      `json:"last_page"`
	CurrentPage int      `json:"current_page"`
	Meta        *struct {
		LastPage    int `json:"last_page"`
		CurrentPage int `json:"current_page"`
	} `json:"meta"`
}

// parseRecords accepts a bare JSON array or an object with a data array.
// The second return value is the last page reported by the envelope (0 when
// the response is not paginated).
func parseRecords(body []byte) ([]Record, int, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, 0, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if trimmed[0] == '[' {
		var items []Record
		if err := dec.Decode(&items); err != nil {
			return nil, 0, fmt.Errorf("failed to decode response: %w", err)
		}
		return compact(items), 0, nil
	}
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, 0, fmt.Errorf("failed to decode response: %w", err)
	}
	lastPage := env.LastPage
	if env.Meta != nil && env.Meta.LastPage > 0 {
		lastPage = env.Meta.LastPage
	}
	return compact(env.Data), lastPage, nil
}

func compact(items []Record) []Record {
	out := items[:0]
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for key, vals := range v {
		out[key] = append([]string(nil), vals...)
	}
	return out
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
