// Package client provides the HTTP client for the Gaze owner-info API.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"cog_mailing_sync/internal/gaze/transport"
	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/logger"
)

const maxResponseBytes = 4 << 20

// TokenProvider supplies bearer tokens and drops them when rejected.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate(ctx context.Context)
}

// Client is the HTTP client for the Gaze API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenProvider
	limiter    *rate.Limiter
	log        *logger.Logger
	now        func() time.Time
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// New creates a new Gaze API client.
func New(opts Options, tokens TokenProvider, log *logger.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    opts.BaseURL,
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
		now:        time.Now,
	}
}

// OwnerInfo fetches the raw owner-info document for a parcel. A 401 drops the
// cached token and retries once with a fresh login.
func (c *Client) OwnerInfo(ctx context.Context, parcelID string) ([]byte, error) {
	body, status, err := c.ownerInfo(ctx, parcelID)
	if err == nil || status != http.StatusUnauthorized {
		return body, err
	}

	c.log.Info("gaze token rejected, logging in again", "parcel_id", parcelID)
	c.tokens.Invalidate(ctx)
	body, _, err = c.ownerInfo(ctx, parcelID)
	return body, err
}

// FetchExternalAddresses fetches and decodes the owner and mortgage mailing
// addresses for a parcel.
func (c *Client) FetchExternalAddresses(ctx context.Context, parcelID string) (transport.Snapshot, error) {
	fetchedAt := c.now().UTC()
	body, err := c.OwnerInfo(ctx, parcelID)
	if err != nil {
		return transport.Snapshot{}, err
	}

	ext, err := transport.DecodeOwnerInfo(body)
	if err != nil {
		return transport.Snapshot{ParcelID: parcelID, FetchedAt: fetchedAt, Raw: body}, err
	}

	return transport.Snapshot{
		ParcelID:  parcelID,
		FetchedAt: fetchedAt,
		External:  ext,
		Raw:       body,
	}, nil
}

func (c *Client) ownerInfo(ctx context.Context, parcelID string) ([]byte, int, error) {
	const op = "gaze.OwnerInfo"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, apperr.UpstreamUnavailable("rate limiter", err).WithOp(op)
	}

	tok, err := c.tokens.Token(ctx)
	if err != nil {
		c.log.UpstreamError("gaze", "login", 0, err)
		return nil, 0, apperr.UpstreamUnavailable("obtain token", err).WithOp(op)
	}

	params := url.Values{}
	params.Set("parcelId", parcelID)
	reqURL := fmt.Sprintf("%s/browser/owner-info/%s?%s", c.baseURL, url.PathEscape(parcelID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("create request: %v", err)).WithOp(op)
	}
	req.Header.Set("Authorization", tok)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.UpstreamError("gaze", "owner-info", 0, err)
		return nil, 0, apperr.UpstreamUnavailable("owner-info request", err).WithOp(op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, resp.StatusCode, apperr.UpstreamUnavailable("read owner-info response", err).WithOp(op)
	}
	if len(body) > maxResponseBytes {
		c.log.UpstreamError("gaze", "owner-info", resp.StatusCode, nil)
		return nil, resp.StatusCode, apperr.UpstreamUnavailable(
			fmt.Sprintf("owner-info response exceeds %d bytes", maxResponseBytes), nil).WithOp(op)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, resp.StatusCode, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		c.log.UpstreamError("gaze", "owner-info", resp.StatusCode, nil)
		return nil, resp.StatusCode, apperr.UpstreamUnavailable(
			fmt.Sprintf("owner-info status %d", resp.StatusCode), nil).WithOp(op)
	case resp.StatusCode >= http.StatusBadRequest:
		c.log.UpstreamError("gaze", "owner-info", resp.StatusCode, nil)
		return nil, resp.StatusCode, apperr.InputRejected(
			fmt.Sprintf("owner-info rejected parcel %q: status %d", parcelID, resp.StatusCode)).WithOp(op)
	default:
		return nil, resp.StatusCode, apperr.UpstreamUnavailable(
			fmt.Sprintf("owner-info unexpected status %d", resp.StatusCode), nil).WithOp(op)
	}
}
