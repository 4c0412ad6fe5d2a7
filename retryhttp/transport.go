package retryhttp

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/persistio/persist/retry"
)

// Transport is an http.RoundTripper that retries through an Executor, so
// an unmodified http.Client gets retry behavior:
//
//	client := &http.Client{Transport: &retryhttp.Transport{}}
//
// Transport errors and retryable statuses (5xx, 429, 408) are retried;
// any other response, success or not, is returned as-is so the caller
// keeps normal http.Client semantics. Requests with a non-replayable
// body fail without a first attempt.
type Transport struct {
	// Base performs the individual attempts. Nil means
	// http.DefaultTransport.
	Base http.RoundTripper

	// Exec runs the retry loop. Nil means the shared default executor.
	Exec *retry.Executor

	// Options apply to every request through this transport.
	Options []retry.CallOption
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	exec := t.Exec
	if exec == nil {
		exec = retry.DefaultExecutor()
	}

	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, errors.New("persist: request body is not replayable (GetBody is nil)")
	}

	op := func(ctx context.Context, _ int) (*http.Response, error) {
		outReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			outReq.Body = body
		}

		resp, err := base.RoundTrip(outReq)
		if err != nil {
			return nil, &StatusError{Err: err, Method: req.Method}
		}
		if !RetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
		resp.Body.Close()

		return nil, &StatusError{
			Code:   resp.StatusCode,
			Method: req.Method,
			Header: resp.Header,
		}
	}

	opts := append([]retry.CallOption{retry.WithClassifier(Classifier(nil))}, t.Options...)
	return retry.DoValue(req.Context(), exec, op, opts...)
}
