// Package retryhttp retries HTTP requests: it clones the request per
// attempt, replays the body through GetBody, drains failed response
// bodies so connections can be reused, and classifies status codes.
package retryhttp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/persistio/persist/classify"
	"github.com/persistio/persist/observe"
	"github.com/persistio/persist/retry"
)

// drainLimit bounds how much of a failed response body is read before
// closing, so a large error body cannot stall a retry.
const drainLimit = 4096

// Do executes req with retries under exec. Non-2xx responses and
// transport errors are surfaced as *StatusError; the response of the
// first successful attempt is returned unread.
func Do(ctx context.Context, exec *retry.Executor, client *http.Client, req *http.Request, opts ...retry.CallOption) (*http.Response, observe.Timeline, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, observe.Timeline{}, errors.New("persist: request body is not replayable (GetBody is nil)")
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

		resp, err := client.Do(outReq)
		if err != nil {
			// Wrap transport errors so status classification applies.
			return nil, &StatusError{
				Err:    err,
				Method: req.Method,
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Drain and close so the connection survives the retry.
		_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
		resp.Body.Close()

		return nil, &StatusError{
			Code:   resp.StatusCode,
			Method: req.Method,
			Header: resp.Header,
		}
	}

	ctx, capture := observe.RecordTimeline(ctx)

	opts = append([]retry.CallOption{retry.WithClassifier(Classifier(nil))}, opts...)
	resp, err := retry.DoValue(ctx, exec, op, opts...)

	var tl observe.Timeline
	if t := capture.Timeline(); t != nil {
		tl = *t
	}

	return resp, tl, err
}

// Classifier classifies *StatusError by status code: 5xx, 429 and 408
// retry, other 4xx do not, transport errors retry. Everything else is
// delegated to next, or to the default rules when next is nil.
func Classifier(next classify.Classifier) classify.Classifier {
	if next == nil {
		next = &classify.DefaultClassifier{}
	}
	return classify.ClassifierFunc(func(err error) classify.Outcome {
		var se *StatusError
		if !errors.As(err, &se) {
			return next.Classify(err)
		}
		if se.Code == 0 || RetryableStatus(se.Code) {
			return classify.Outcome{Kind: classify.OutcomeRetryable, Reason: "http_status", Cause: err}
		}
		return classify.Outcome{Kind: classify.OutcomeNonRetryable, Reason: "http_status", Cause: err}
	})
}

// RetryableStatus reports whether a status code is worth retrying.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

// StatusError is a non-2xx response or a transport failure.
type StatusError struct {
	Code   int
	Method string
	Header http.Header
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "http status " + strconv.Itoa(e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// RetryAfter parses the Retry-After header, in either seconds or HTTP
// date form.
func (e *StatusError) RetryAfter() (time.Duration, bool) {
	if e.Header == nil {
		return 0, false
	}
	s := e.Header.Get("Retry-After")
	if s == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}

	if t, err := http.ParseTime(s); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}
