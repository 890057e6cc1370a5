package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
)

const defaultRelayTimeout = 20 * time.Second

// Relay posts contact messages as JSON to a form relay endpoint.
// It never retries.
type Relay struct {
	endpoint string
	httpcli  *http.Client
}

// NewRelay creates a relay for endpoint, timeout <= 0 uses 20s
func NewRelay(endpoint string, timeout time.Duration) (*Relay, error) {
	if endpoint == "" {
		return nil, errors.New("relay endpoint is empty")
	}
	if timeout <= 0 {
		timeout = defaultRelayTimeout
	}

	httpcli, err := gutils.NewHTTPClient(gutils.WithHTTPClientTimeout(timeout))
	if err != nil {
		return nil, errors.Wrap(err, "new http client")
	}

	return &Relay{endpoint: endpoint, httpcli: httpcli}, nil
}

// Send delivers form. Transport errors and non 2xx responses wrap ErrRelayFailed.
func (r *Relay) Send(ctx context.Context, form dto.ContactForm) error {
	body, err := json.Marshal(form)
	if err != nil {
		return errors.Wrap(err, "marshal form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpcli.Do(req)
	if err != nil {
		return errors.Wrap(ErrRelayFailed, err.Error())
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrapf(ErrRelayFailed, "relay returned [%d]%s", resp.StatusCode, string(respBody))
	}

	return nil
}
