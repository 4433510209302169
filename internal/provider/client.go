// Package provider talks to the external offers service: it obtains the
// access token, registers products and fetches their current offers.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/valeevte/OfferMonitor/internal/products"
)

// authHeader is the header the offers service reads the access token from.
const authHeader = "Bearer"

const maxBodyBytes = 4 << 20

var (
	// ErrUnavailable marks a failed call that should be retried on a later pass.
	ErrUnavailable      = errors.New("offers service unavailable")
	ErrNotAuthenticated = errors.New("offers service: not authenticated")

	errUnauthorized = errors.New("offers service rejected the access token")
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit caps outgoing requests per second; 0 means no pacing.
	RateLimit float64
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// credential is replaced as a whole on (re)authentication and never mutated.
type credential struct {
	token string
}

type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	cred     atomic.Pointer[credential]
	authMu   sync.Mutex
	validate *validator.Validate
	now      func() time.Time
	log      zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     hc,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

type authResponse struct {
	AccessToken string `json:"access_token" validate:"required"`
}

// Authenticate obtains an access token. It must succeed before any other call.
func (c *Client) Authenticate(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, "/auth", nil, false)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("authenticate: unexpected status %d", resp.StatusCode)
	}
	var ar authResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&ar); err != nil {
		return fmt.Errorf("authenticate: decode: %w", err)
	}
	if err := c.validate.Struct(ar); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	c.cred.Store(&credential{token: ar.AccessToken})
	c.log.Info().Msg("authenticated with offers service")
	return nil
}

// Reauthenticate replaces the current token with a fresh one.
func (c *Client) Reauthenticate(ctx context.Context) error {
	c.log.Info().Msg("refreshing offers service token")
	return c.Authenticate(ctx)
}

// RegisterProduct reports whether the offers service accepted the product.
func (c *Client) RegisterProduct(ctx context.Context, p products.Product) bool {
	body, err := json.Marshal(p)
	if err != nil {
		c.log.Error().Err(err).Int64("product_id", p.ID).Msg("encode product")
		return false
	}
	resp, err := c.send(ctx, http.MethodPost, "/products/register", body, true)
	if err != nil {
		c.log.Error().Err(err).Int64("product_id", p.ID).Msg("register product to offers service failed")
		return false
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error().Int("status", resp.StatusCode).Int64("product_id", p.ID).Msg("register product to offers service failed")
		return false
	}
	return true
}

// FetchOffers returns the product's current offers, all stamped with the same
// capture time taken before the request. Failures are logged and returned
// wrapping ErrUnavailable.
func (c *Client) FetchOffers(ctx context.Context, productID int64) ([]products.Offer, error) {
	capturedAt := c.now().UTC().Truncate(time.Microsecond)

	offers, err := c.fetchOffers(ctx, productID, capturedAt)
	if err != nil {
		c.log.Warn().Err(err).Int64("product_id", productID).Msg("call to offers service failed")
		return nil, fmt.Errorf("%w: product %d: %w", ErrUnavailable, productID, err)
	}
	return offers, nil
}

func (c *Client) fetchOffers(ctx context.Context, productID int64, capturedAt time.Time) ([]products.Offer, error) {
	resp, err := c.send(ctx, http.MethodGet, fmt.Sprintf("/products/%d/offers", productID), nil, true)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return decodeOffers(io.LimitReader(resp.Body, maxBodyBytes), c.validate, productID, capturedAt)
}

// send issues one request. With authed set, a 401 triggers a single
// re-authentication and retry.
func (c *Client) send(ctx context.Context, method, path string, body []byte, authed bool) (*http.Response, error) {
	var cred *credential
	if authed {
		if cred = c.cred.Load(); cred == nil {
			return nil, ErrNotAuthenticated
		}
	}
	resp, err := c.do(ctx, method, path, body, cred)
	if !errors.Is(err, errUnauthorized) {
		return resp, err
	}
	if err := c.refresh(ctx, cred); err != nil {
		return nil, err
	}
	return c.do(ctx, method, path, body, c.cred.Load())
}

// refresh re-authenticates unless another caller already replaced the stale
// credential, so concurrent 401s for one token cause a single POST /auth.
func (c *Client) refresh(ctx context.Context, stale *credential) error {
	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.cred.Load() != stale {
		return nil
	}
	return c.Reauthenticate(ctx)
}

// do sends the request with cred in the auth header; a nil cred sends none.
func (c *Client) do(ctx context.Context, method, path string, body []byte, cred *credential) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != nil {
		req.Header.Set(authHeader, cred.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if cred != nil && resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		return nil, errUnauthorized
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
}
