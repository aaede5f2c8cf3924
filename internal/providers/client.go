package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var (
	ErrNotConnected      = errors.New("provider not connected")
	ErrTooManyActivities = errors.New("too many activities to read in one sync")
)

// maxPages bounds a single RecentActivity read. Exceeding it fails the read
// instead of returning a partial sum.
const maxPages = 100

// maxBurst caps the limiter bucket for large RPS values.
const maxBurst = 100

var requestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "fitness_provider_request_duration_seconds",
		Help:    "Latency of measurement provider API calls",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "status"},
)

// InitMetrics registers the provider metrics. Call once from main.
func InitMetrics() {
	prometheus.MustRegister(requestDuration)
}

// TokenStore looks up a user's access token for a provider.
type TokenStore interface {
	Get(ctx context.Context, userID string, provider models.Provider) (*models.Connection, error)
}

type Config struct {
	BaseURL string
	// RPS limits outgoing requests per provider. Zero means unlimited.
	RPS        float64
	HTTPClient *http.Client
}

type client struct {
	provider models.Provider
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	tokens   TokenStore
}

func newClient(provider models.Provider, defaultURL string, cfg Config, tokens TokenStore) *client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := maxBurst
		if cfg.RPS < maxBurst {
			burst = int(cfg.RPS) + 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &client{
		provider: provider,
		baseURL:  baseURL,
		http:     httpClient,
		limiter:  limiter,
		tokens:   tokens,
	}
}

// getJSON performs an authorized GET on path and decodes the body into v.
func (c *client) getJSON(ctx context.Context, userID, path string, query url.Values, v interface{}) error {
	conn, err := c.tokens.Get(ctx, userID, c.provider)
	if errors.Is(err, db.ErrRecordNotFound) {
		return ErrNotConnected
	}
	if err != nil {
		return fmt.Errorf("load %s token: %w", c.provider, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+conn.AccessToken)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		requestDuration.WithLabelValues(string(c.provider), "error").Observe(time.Since(start).Seconds())
		return err
	}
	defer resp.Body.Close()
	requestDuration.WithLabelValues(string(c.provider), strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s API returned %d: %s", c.provider, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", c.provider, err)
	}
	return nil
}

// measurement builds a Measurement leaving non-positive totals out.
func measurement(distance, calories, minutes float64, activities int) *models.Measurement {
	m := &models.Measurement{Activities: activities}
	if distance > 0 {
		m.Distance = models.Float64(distance)
	}
	if calories > 0 {
		m.Calories = models.Float64(calories)
	}
	if minutes > 0 {
		m.Minutes = models.Float64(minutes)
	}
	return m
}
