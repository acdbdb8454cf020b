package call

// NetworkError classifies transport-level failures. It is a closed set:
// anything that is not a timeout or a recognized network failure is surfaced
// as opaque error data instead.
type NetworkError string

const (
	// NetworkNone means no network-level failure occurred.
	NetworkNone NetworkError = ""
	// NetworkTimeout means the timeout fired before the transport settled.
	NetworkTimeout NetworkError = "timeout"
	// NetworkOther covers DNS, connection and similar transport failures.
	NetworkOther NetworkError = "other"
)

// Result is the single value every call resolves into. At most one of Data,
// ErrorData and a data-less NetworkError is meaningfully populated;
// StatusCode is non-zero whenever a response was actually received.
type Result[T, E any] struct {
	// Data holds the decoded payload when a response arrived with a valid
	// status code.
	Data *T

	// ErrorData holds the decoded payload when a response arrived with an
	// invalid status code.
	ErrorData *E

	// NetworkError is set when the call failed at the transport level.
	NetworkError NetworkError

	// StatusCode is the received status, 0 when no response was obtained.
	StatusCode int

	// RawBody keeps the undecoded response bytes whenever a response was
	// received, so opaque payloads are never lost.
	RawBody []byte

	// Err carries failure detail that fits neither Data nor ErrorData:
	// the underlying transport error, a body decode error, or a body
	// serialization error.
	Err error
}

// IsSuccess reports whether the call produced valid data.
func (r Result[T, E]) IsSuccess() bool {
	return r.Data != nil
}

// IsNetworkError reports whether the call failed at the transport level.
func (r Result[T, E]) IsNetworkError() bool {
	return r.NetworkError != NetworkNone
}

// IsAppError reports whether a response arrived with an invalid status.
func (r Result[T, E]) IsAppError() bool {
	return r.Data == nil && r.NetworkError == NetworkNone && r.StatusCode != 0
}

// Outcome names the result bucket for history records and output.
func (r Result[T, E]) Outcome() string {
	switch {
	case r.IsSuccess():
		return "success"
	case r.NetworkError == NetworkTimeout:
		return "timeout"
	case r.NetworkError == NetworkOther:
		return "network_error"
	default:
		return "app_error"
	}
}
