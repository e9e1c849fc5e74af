package karma

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/demo-credit/wallet-backend/internal/metrics"
	"github.com/redis/go-redis/v9"
)

// Client talks to the Karma blacklist API. Every failure mode is fail-open:
// an unreachable or misbehaving collaborator must never block onboarding.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *slog.Logger

	// optional verdict cache
	rdb      *redis.Client
	cacheTTL time.Duration
}

type Option func(*Client)

// WithRedisCache caches verdicts so repeated checks for the same email (the
// rescreening sweep, mostly) don't hammer the collaborator.
func WithRedisCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(c *Client) {
		c.rdb = rdb
		c.cacheTTL = ttl
	}
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type karmaUser struct {
	Email       string `json:"email"`
	Blacklisted int    `json:"blacklisted"`
}

type karmaResponse struct {
	Data struct {
		Users []karmaUser `json:"users"`
	} `json:"data"`
}

// CheckBlacklisted reports whether the email is on the Karma blacklist.
// Collaborator errors are logged and reported as not blacklisted.
func (c *Client) CheckBlacklisted(ctx context.Context, email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))

	if c.rdb != nil {
		if v, err := c.rdb.Get(ctx, "karma:"+email).Result(); err == nil {
			metrics.KarmaChecks.WithLabelValues("cache_hit").Inc()
			return v == "1"
		}
	}

	verdict, err := c.query(ctx, email)
	if err != nil {
		c.log.Warn("karma check failed, treating as not blacklisted", "email", email, "err", err)
		metrics.KarmaChecks.WithLabelValues("error").Inc()
		return false
	}
	metrics.KarmaChecks.WithLabelValues("ok").Inc()

	if c.rdb != nil {
		v := "0"
		if verdict {
			v = "1"
		}
		if err := c.rdb.Set(ctx, "karma:"+email, v, c.cacheTTL).Err(); err != nil {
			c.log.Warn("karma cache write failed", "err", err)
		}
	}
	return verdict
}

func (c *Client) query(ctx context.Context, email string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// not known to Karma at all
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, &statusError{resp.StatusCode}
	}

	var body karmaResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	for _, u := range body.Data.Users {
		if strings.EqualFold(u.Email, email) {
			return u.Blacklisted == 1, nil
		}
	}
	return false, nil
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return "karma api returned " + http.StatusText(e.code)
}
