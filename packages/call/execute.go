package call

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/jcall-dev/jcall/packages/httpx"
)

// Transport performs the actual network call. httpx.Client satisfies it;
// tests inject fakes.
type Transport interface {
	Do(ctx context.Context, method, url string, headers httpx.Headers, body []byte) (*httpx.Response, error)
}

type transportResult struct {
	resp *httpx.Response
	err  error
}

// Execute runs one call described by spec against the given transport and
// resolves every outcome into a Result. It never returns an error.
//
// The transport call is raced against a timer of spec.TimeoutMs. When the
// timer wins, the in-flight call is abandoned, not cancelled: it runs to
// completion in the background with its result discarded.
func Execute[T, E any](ctx context.Context, transport Transport, spec Spec) Result[T, E] {
	var res Result[T, E]

	spec = withDefaults(spec)

	var body []byte
	if spec.Body != nil && attachesBody(spec.Method) {
		b, err := json.Marshal(spec.Body)
		if err != nil {
			res.Err = err
			return res
		}
		body = b
	}

	headers := spec.headers()

	// Buffered so the losing goroutine can still deliver and exit.
	ch := make(chan transportResult, 1)
	go func() {
		resp, err := transport.Do(ctx, spec.Method, spec.URL, headers, body)
		ch <- transportResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(time.Duration(spec.TimeoutMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case tr := <-ch:
		if tr.err != nil {
			return classifyFailure[T, E](tr.err)
		}
		return classifyResponse[T, E](spec, tr.resp)
	case <-timer.C:
		res.NetworkError = NetworkTimeout
		return res
	case <-ctx.Done():
		return classifyFailure[T, E](ctx.Err())
	}
}

// classifyFailure maps a transport rejection onto the closed network-error
// set: timeouts stay timeouts, everything else is "other". The underlying
// error is kept for callers that need detail.
func classifyFailure[T, E any](err error) Result[T, E] {
	res := Result[T, E]{Err: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.NetworkError = NetworkTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		res.NetworkError = NetworkTimeout
	default:
		res.NetworkError = NetworkOther
	}

	return res
}

// classifyResponse records the status code and routes the payload into Data
// or ErrorData depending on status validity. With JSONResponse off, the raw
// response passes through untouched.
func classifyResponse[T, E any](spec Spec, resp *httpx.Response) Result[T, E] {
	res := Result[T, E]{
		StatusCode: resp.StatusCode,
		RawBody:    resp.Body,
	}

	valid := specValid(spec, resp.StatusCode)
	decode := spec.JSONResponse != nil && *spec.JSONResponse

	if valid {
		if !decode {
			res.Data = rawPayload[T](resp)
			return res
		}
		var data T
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			res.Err = err
			return res
		}
		res.Data = &data
		return res
	}

	if !decode {
		res.ErrorData = rawPayload[E](resp)
		return res
	}
	var errData E
	if err := json.Unmarshal(resp.Body, &errData); err != nil {
		res.Err = err
		return res
	}
	res.ErrorData = &errData
	return res
}

// rawPayload passes the undecoded response through when the payload type can
// hold it: the response itself, its bytes, or its body as a string.
func rawPayload[P any](resp *httpx.Response) *P {
	if v, ok := any(resp).(P); ok {
		return &v
	}
	if v, ok := any(resp.Body).(P); ok {
		return &v
	}
	if v, ok := any(resp.BodyString()).(P); ok {
		return &v
	}
	return nil
}
