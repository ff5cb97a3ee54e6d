// Package upstream holds the error returned by the HTTP clients when a remote
// API answers with a non-success status.
package upstream

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// RequestError is a non-success response from an upstream API. Body is the
// response body as returned by the server and Payload the request body that
// was attempted, kept for manual remediation.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Payload    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: response %d %q", e.Method, e.URL, e.StatusCode, e.Body)
}

// Check returns a *RequestError when res has a non-2xx status. The response
// body is consumed in that case.
func Check(res *http.Response, payload []byte) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but the body could not be read", res.StatusCode)
	}

	reqErr := &RequestError{
		StatusCode: res.StatusCode,
		Body:       strings.TrimRight(string(body), "\n"),
		Payload:    string(payload),
	}
	if res.Request != nil {
		reqErr.Method = res.Request.Method
		reqErr.URL = res.Request.URL.String()
	}
	return reqErr
}

// StatusCode reports the status of the first *RequestError in err's chain.
func StatusCode(err error) (int, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode, true
	}
	return 0, false
}
