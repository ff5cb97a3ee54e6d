package notion

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// requestsPerSecond is the average rate Notion allows per integration.
	requestsPerSecond = 3
	requestBurst      = 3
)

type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient returns an HTTP client that stays under the
// Notion request rate. It has no timeout.
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / requestsPerSecond
	return &http.Client{
		Transport: &rateLimitedTransport{
			transport: http.DefaultTransport,
			limiter:   rate.NewLimiter(rate.Every(interval), requestBurst),
		},
	}
}
