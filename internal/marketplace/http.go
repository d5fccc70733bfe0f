package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// HTTPClient talks to the marketplace backend's JSON API. It caches
// the client-credentials token and refreshes it shortly before expiry.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	logger *zap.SugaredLogger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewHTTPClient(cfg Config, logger *zap.SugaredLogger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *HTTPClient) ShowListing(ctx context.Context, id string) (*Listing, error) {
	var rsp apiResponse
	query := url.Values{"id": {id}}
	if err := c.do(ctx, http.MethodGet, "/v1/api/listings/show", query, nil, &rsp); err != nil {
		return nil, fmt.Errorf("failed to show listing %s: %w", id, err)
	}
	return denormalizeListing(&rsp.Data), nil
}

func (c *HTTPClient) UpdateListingMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*Listing, error) {
	body := map[string]interface{}{"id": id, "metadata": metadata}
	var rsp apiResponse
	if err := c.do(ctx, http.MethodPost, "/v1/api/listings/update", nil, body, &rsp); err != nil {
		return nil, fmt.Errorf("failed to update listing %s: %w", id, err)
	}
	return denormalizeListing(&rsp.Data), nil
}

func (c *HTTPClient) QueryListings(ctx context.Context, filter map[string]string) ([]*Listing, error) {
	query := url.Values{}
	for key, val := range filter {
		query.Set(key, val)
	}

	var rsp apiListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/api/listings/query", query, nil, &rsp); err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	listings := make([]*Listing, 0, len(rsp.Data))
	for i := range rsp.Data {
		listings = append(listings, denormalizeListing(&rsp.Data[i]))
	}
	return listings, nil
}

func (c *HTTPClient) ShowTransaction(ctx context.Context, id string, include []string) (*Transaction, error) {
	query := url.Values{"id": {id}}
	if len(include) > 0 {
		query.Set("include", strings.Join(include, ","))
	}

	var rsp apiResponse
	if err := c.do(ctx, http.MethodGet, "/v1/api/transactions/show", query, nil, &rsp); err != nil {
		return nil, fmt.Errorf("failed to show transaction %s: %w", id, err)
	}
	return denormalizeTransaction(&rsp)
}

func (c *HTTPClient) TransitionTransaction(ctx context.Context, id string, transition domain.Transition, params map[string]interface{}, include []string) (*Transaction, error) {
	body := map[string]interface{}{
		"id":         id,
		"transition": transition,
		"params":     params,
	}

	query := url.Values{}
	if len(include) > 0 {
		query.Set("include", strings.Join(include, ","))
	}

	var rsp apiResponse
	if err := c.do(ctx, http.MethodPost, "/v1/api/transactions/transition", query, body, &rsp); err != nil {
		return nil, fmt.Errorf("failed to transition transaction %s: %w", id, err)
	}
	return denormalizeTransaction(&rsp)
}

func (c *HTTPClient) InitiateTransaction(ctx context.Context, params InitiateParams) (*Transaction, error) {
	body := map[string]interface{}{
		"transition": domain.TransitionInitiate,
		"params": map[string]interface{}{
			"listingId":     params.ListingID,
			"bookingStart":  params.BookingStart.Format(time.RFC3339),
			"bookingEnd":    params.BookingEnd.Format(time.RFC3339),
			"displayStart":  params.DisplayStart.Format(time.RFC3339),
			"displayEnd":    params.DisplayEnd.Format(time.RFC3339),
			"metadata":      params.Metadata,
			"protectedData": params.ProtectedData,
		},
	}

	// initiation acts on behalf of the booker, not the operator
	token := params.AccessToken
	if token == "" {
		var err error
		if token, err = c.accessToken(ctx); err != nil {
			return nil, err
		}
	}

	var rsp apiResponse
	if err := c.doWithToken(ctx, token, http.MethodPost, "/v1/api/transactions/initiate", nil, body, &rsp); err != nil {
		return nil, fmt.Errorf("failed to initiate transaction: %w", err)
	}
	return denormalizeTransaction(&rsp)
}

func (c *HTTPClient) ShowUser(ctx context.Context, id string) (*User, error) {
	var rsp apiResponse
	query := url.Values{"id": {id}}
	if err := c.do(ctx, http.MethodGet, "/v1/api/users/show", query, nil, &rsp); err != nil {
		return nil, fmt.Errorf("failed to show user %s: %w", id, err)
	}
	return denormalizeUser(&rsp.Data), nil
}

func (c *HTTPClient) UpdateUserProfile(ctx context.Context, id string, metadata map[string]interface{}) (*User, error) {
	body := map[string]interface{}{"id": id, "metadata": metadata}
	var rsp apiResponse
	if err := c.do(ctx, http.MethodPost, "/v1/api/users/update_profile", nil, body, &rsp); err != nil {
		return nil, fmt.Errorf("failed to update user profile %s: %w", id, err)
	}
	return denormalizeUser(&rsp.Data), nil
}

func (c *HTTPClient) ExchangeToken(ctx context.Context, subAccountID string) (string, error) {
	body := map[string]interface{}{"subject_id": subAccountID}
	var rsp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/token_exchange", nil, body, &rsp); err != nil {
		return "", fmt.Errorf("failed to exchange token for %s: %w", subAccountID, err)
	}
	return rsp.AccessToken, nil
}

func (c *HTTPClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", res.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.token = payload.AccessToken
	// refresh one minute early
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - time.Minute)

	return c.token, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	return c.doWithToken(ctx, token, method, path, query, body, out)
}

func (c *HTTPClient) doWithToken(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		return fmt.Errorf("backend returned %d: %s", res.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
