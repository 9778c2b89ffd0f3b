package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"golang.org/x/time/rate"

	consts "github.com/d0t0ne/dignezzz/internal/shared/constants"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// IPInfoClient queries an ipinfo.io compatible endpoint for the "org" field.
type IPInfoClient struct {
	urlTemplate string
	token       string
	limiter     *rate.Limiter
	client      *http.Client
}

// NewIPInfoClient builds a client. urlTemplate receives the IP through %s;
// perSecond <= 0 disables client-side rate limiting.
func NewIPInfoClient(urlTemplate, token string, perSecond float64, timeout time.Duration) *IPInfoClient {
	if urlTemplate == "" {
		urlTemplate = consts.DefaultIPInfoURL
	}
	if timeout <= 0 {
		timeout = consts.DNSTimeout
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &IPInfoClient{
		urlTemplate: urlTemplate,
		token:       token,
		limiter:     rate.NewLimiter(limit, 1),
		client:      &http.Client{Timeout: timeout},
	}
}

type ipInfoPayload struct {
	IP  string `json:"ip"`
	Org string `json:"org"`
}

// Organization returns the organization registered for ip.
func (c *IPInfoClient) Organization(ctx context.Context, ip netip.Addr) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("ipinfo rate limit: %w", err)
	}

	url := fmt.Sprintf(c.urlTemplate, ip.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create ipinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ipinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ipinfo returned HTTP %d", resp.StatusCode)
	}

	var payload ipInfoPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, consts.ResponseSnippetLimit)).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode ipinfo response: %w", err)
	}
	if strings.TrimSpace(payload.Org) == "" {
		return "", sharedErrors.ErrNoOrganization
	}
	return payload.Org, nil
}
