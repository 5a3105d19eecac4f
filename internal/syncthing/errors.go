package syncthing

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/imroc/req/v3"
)

var (
	// client config
	ErrNoBaseURL = errors.New("syncthing: base url missing")
	ErrNoAPIKey  = errors.New("syncthing: api key missing")

	// request taxonomy
	ErrUnreachable = errors.New("syncthing: daemon unreachable")
	ErrAuthFailed  = errors.New("syncthing: api key rejected")
	ErrMalformed   = errors.New("syncthing: malformed response")
)

// classify maps a transport error or an HTTP error response onto the client
// error taxonomy. Context cancellation passes through untouched so callers
// can tell shutdown apart from daemon failure.
func classify(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		if errors.Is(requestErr, context.Canceled) || errors.Is(requestErr, context.DeadlineExceeded) {
			return requestErr
		}
		return fmt.Errorf("%s: %w: %w", operation, ErrUnreachable, requestErr)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", operation, ErrAuthFailed)
	}

	if resp.IsErrorState() {
		return fmt.Errorf("%s: %w: http %d", operation, ErrUnreachable, resp.StatusCode)
	}

	return nil
}
