package namex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openregistry/filings-api/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Client queries the name-request service for a reservation by NR number.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// nrResponse is the wire shape of the name-request service. The reservation
// carries every submitted name choice; the approved one wins.
type nrResponse struct {
	State     string `json:"state"`
	LegalType string `json:"legalType"`
	Names     []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	} `json:"names"`
}

func (c *Client) Query(ctx context.Context, nrNumber string) (domain.NameRequest, error) {
	endpoint := fmt.Sprintf("%s/requests/%s", c.baseURL, url.PathEscape(nrNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.NameRequest{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.NameRequest{}, fmt.Errorf("query name request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NameRequest{}, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.NameRequest{}, fmt.Errorf("name request service returned status %d", resp.StatusCode)
	}

	var body nrResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return domain.NameRequest{}, fmt.Errorf("decode name request: %w", err)
	}

	nr := domain.NameRequest{
		State:     body.State,
		LegalType: domain.LegalType(body.LegalType),
	}
	for _, name := range body.Names {
		if name.State == domain.NameRequestStateApproved {
			nr.LegalName = name.Name
			break
		}
	}
	return nr, nil
}
