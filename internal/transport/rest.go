package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"fxdash/internal/view"
)

// Bootstrap fetches the backend's current status over plain HTTP. It is
// used once per successful websocket connect so the view model starts
// from the present state instead of waiting for the next push.
type Bootstrap struct {
	base string
	rest *resty.Client
}

// NewBootstrap creates a status client for the backend REST base URL.
func NewBootstrap(base string, timeout time.Duration) *Bootstrap {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &Bootstrap{base: base, rest: r}
}

// Fetch requests GET /api/status and decodes the response into a
// Snapshot. The response carries the same shape as a pushed snapshot
// plus the bot_running flag.
func (b *Bootstrap) Fetch(ctx context.Context) (*view.Snapshot, error) {
	snap := &view.Snapshot{}
	resp, err := b.rest.R().
		SetContext(ctx).
		SetResult(snap).
		Get(b.base + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("status request: unexpected status %d", resp.StatusCode())
	}
	return snap, nil
}
