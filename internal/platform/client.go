// Package platform talks to the hosting platform: a GraphQL endpoint for
// paginated repository listing and single-repository detail, and a REST
// endpoint for the notification dispatcher's lookups and comment posting.
// Retry/backoff and rate-limit bookkeeping follow the teacher's
// internal/github/client.go doRequestWithBackoff shape exactly, generalized
// to drive both transports.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/KernelSU-Modules-Repo/modules/internal/apperr"
	"github.com/KernelSU-Modules-Repo/modules/internal/config"
)

// RateLimitInfo mirrors the teacher's bookkeeping of primary and secondary
// GitHub-style rate limit headers.
type RateLimitInfo struct {
	Limit                   int
	Remaining               int
	ResetTime               time.Time
	SecondaryLimitRemaining int
	SecondaryLimitReset     time.Time
}

// Client is the hosting-platform client: GraphQL listing/detail plus REST
// notification endpoints, sharing one bearer-authenticated *http.Client and
// one retry/backoff policy.
type Client struct {
	httpClient *http.Client
	graphqlURL string
	restURL    string
	logger     *logrus.Logger

	rateLimitInfo   RateLimitInfo
	maxRetries      int
	initialBackoff  time.Duration
	maxBackoff      time.Duration
	retryMultiplier float64
}

// NewClient builds a platform Client authenticated with a bearer token,
// exactly as the teacher's NewGitHubClient wires oauth2.StaticTokenSource.
func NewClient(token string, cfg config.PlatformConfig, logger *logrus.Logger) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 120 * time.Second

	return &Client{
		httpClient:      httpClient,
		graphqlURL:      cfg.GraphQLURL,
		restURL:         cfg.RESTURL,
		logger:          logger,
		maxRetries:      cfg.RateLimit.MaxRetries,
		initialBackoff:  cfg.RateLimit.InitialBackoff,
		maxBackoff:      cfg.RateLimit.MaxBackoff,
		retryMultiplier: cfg.RateLimit.RetryMultiplier,
	}
}

func (c *Client) updateRateLimitInfo(resp *http.Response) {
	if limit := resp.Header.Get("X-RateLimit-Limit"); limit != "" {
		c.rateLimitInfo.Limit, _ = strconv.Atoi(limit)
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.rateLimitInfo.Remaining, _ = strconv.Atoi(remaining)
	}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetUnix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			c.rateLimitInfo.ResetTime = time.Unix(resetUnix, 0)
		}
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			c.rateLimitInfo.SecondaryLimitReset = time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
}

func (c *Client) checkRateLimit() {
	now := time.Now()

	if c.rateLimitInfo.Remaining > 0 && c.rateLimitInfo.Remaining <= 5 {
		if wait := time.Until(c.rateLimitInfo.ResetTime); wait > 0 {
			c.logger.Warnf("primary rate limit nearly exceeded, waiting %v", wait)
			time.Sleep(wait)
		}
	}

	if !c.rateLimitInfo.SecondaryLimitReset.IsZero() && now.Before(c.rateLimitInfo.SecondaryLimitReset) {
		wait := time.Until(c.rateLimitInfo.SecondaryLimitReset)
		c.logger.Warnf("secondary rate limit active, waiting %v", wait)
		time.Sleep(wait)
	}
}

// doRequestWithBackoff sends req, decoding a 2xx body into result (if
// non-nil), retrying transport failures and 5xx responses with exponential
// backoff, and 429 responses after waiting for the rate-limit reset, for up
// to maxRetries attempts in all.
func (c *Client) doRequestWithBackoff(req *http.Request, result interface{}) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		c.checkRateLimit()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = apperr.NewPlatformError("request failed", err)
			c.logger.WithError(err).Warnf("platform request attempt %d failed", attempt+1)
			time.Sleep(backoff)
			backoff = nextBackoff(backoff, c.retryMultiplier, c.maxBackoff)
			continue
		}

		c.updateRateLimitInfo(resp)

		if resp.StatusCode == http.StatusTooManyRequests {
			resetTime := c.rateLimitInfo.ResetTime
			if !c.rateLimitInfo.SecondaryLimitReset.IsZero() {
				resetTime = c.rateLimitInfo.SecondaryLimitReset
			}
			wait := time.Until(resetTime)
			c.logger.Warnf("rate limited, waiting %v before retry", wait)
			resp.Body.Close()
			time.Sleep(wait)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = apperr.NewPlatformError("failed to read response body", err)
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			lastErr = apperr.NewPlatformError(fmt.Sprintf("platform returned %d: %s", resp.StatusCode, body), nil)
			if resp.StatusCode >= http.StatusInternalServerError {
				time.Sleep(backoff)
				backoff = nextBackoff(backoff, c.retryMultiplier, c.maxBackoff)
				continue
			}
			return lastErr
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return apperr.NewPlatformError("failed to decode response", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func nextBackoff(current time.Duration, multiplier float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * multiplier)
	if next > max {
		return max
	}
	return next
}

func (c *Client) postGraphQL(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	if err != nil {
		return apperr.NewPlatformError("failed to encode graphql request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return apperr.NewPlatformError("failed to create graphql request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequestWithBackoff(req, result)
}

func (c *Client) doREST(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperr.NewPlatformError("failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.restURL+path, reader)
	if err != nil {
		return apperr.NewPlatformError("failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.doRequestWithBackoff(req, result)
}

