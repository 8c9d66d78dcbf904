package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/dmitrijs2005/formrelay/internal/apierr"
)

// maxErrorBodySize caps how much of an error response body is read when
// deriving the user-facing message.
const maxErrorBodySize = 4 << 10

type errorEnvelope struct {
	Error string `json:"error"`
}

// normalize maps a raw transport error or an error HTTP response into a
// single *apierr.Error. It cannot fail: classification that matches no
// specific cause yields the generic fallback. The normalized error is
// written to the diagnostic log before being returned; no retries happen
// here.
//
// Classification, first match wins:
//  1. caller-initiated cancellation
//  2. deadline exceeded / transport timeout
//  3. any other failure with no HTTP response -> network error
//  4. HTTP response with an error status -> status plus body-derived message
func (c *HTTPClient) normalize(ctx context.Context, method string, path string, resp *http.Response, raw error) *apierr.Error {
	var ae *apierr.Error

	switch {
	case resp == nil:
		ae = classifyTransport(raw)
	case resp.StatusCode >= http.StatusBadRequest:
		ae = errorFromResponse(resp)
	default:
		ae = apierr.Unknown(raw)
	}

	c.logger.Error(ctx, "api request failed",
		"method", method,
		"path", path,
		"status", ae.Status,
		"network", ae.NetworkError,
		"timeout", ae.Timeout,
		"canceled", ae.Canceled,
		"message", ae.Message,
	)

	return ae
}

func classifyTransport(raw error) *apierr.Error {
	if raw == nil {
		return apierr.Unknown(nil)
	}

	if errors.Is(raw, context.Canceled) {
		return apierr.Aborted(raw)
	}
	if errors.Is(raw, context.DeadlineExceeded) {
		return apierr.Timedout(raw)
	}

	var ne net.Error
	if errors.As(raw, &ne) && ne.Timeout() {
		return apierr.Timedout(raw)
	}

	// No response was received and the failure is neither a timeout nor a
	// cancellation: connection refused, DNS failure, reset, unreachable.
	return apierr.Network(raw)
}

// errorFromResponse builds the normalized error for a response with an error
// status. The message comes from the server's JSON envelope when the body
// parses, otherwise from the generic status text.
func errorFromResponse(resp *http.Response) *apierr.Error {
	message := http.StatusText(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err == nil && len(body) > 0 {
		var envelope errorEnvelope
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error != "" {
			message = envelope.Error
		}
	}
	if message == "" {
		message = "unexpected server error"
	}

	return apierr.FromStatus(resp.StatusCode, message, nil)
}
