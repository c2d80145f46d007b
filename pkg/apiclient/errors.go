package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ConnectivityMessage is the Failure message used when no response was received.
const ConnectivityMessage = "connectivity error"

var (
	// ErrInvalidBaseURL is returned by New for unusable base URLs.
	ErrInvalidBaseURL = errors.New("apiclient.invalid_base_url")

	// ErrInvalidBody is returned when a request body cannot be encoded as JSON.
	ErrInvalidBody = errors.New("apiclient.invalid_body")

	// ErrMalformedResponse marks a success response whose body is not JSON.
	ErrMalformedResponse = errors.New("apiclient.malformed_response")
)

// Failure is the normalized error for every call that did not produce a
// usable success payload. Status is 0 when no server was reached.
type Failure struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body,omitempty"`

	// Err is the transport-level cause for Status 0 failures.
	Err error `json:"-"`
}

func (f *Failure) Error() string {
	if f.Status == 0 {
		if f.Err != nil {
			return fmt.Sprintf("apiclient: %s: %v", f.Message, f.Err)
		}
		return "apiclient: " + f.Message
	}
	return fmt.Sprintf("apiclient: status %d: %s", f.Status, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func connectivityFailure(err error) *Failure {
	return &Failure{Status: 0, Message: ConnectivityMessage, Err: err}
}

// statusFailure builds a Failure from a non-2xx response. The message comes
// from a JSON "message" or "error" field when the server sent one.
func statusFailure(status int, body []byte) *Failure {
	f := &Failure{Status: status}
	if len(body) > 0 && !json.Valid(body) {
		// Proxies answer with HTML or plain text; keep it as a JSON string.
		if raw, err := json.Marshal(string(body)); err == nil {
			f.Body = raw
		}
	} else if len(body) > 0 {
		f.Body = json.RawMessage(body)
		var envelope struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil {
			f.Message = envelope.Message
			if f.Message == "" {
				f.Message = envelope.Error
			}
		}
	}
	if f.Message == "" {
		f.Message = http.StatusText(status)
	}
	return f
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// StatusOf returns the failure status, or -1 when err carries no Failure.
func StatusOf(err error) int {
	if f, ok := AsFailure(err); ok {
		return f.Status
	}
	return -1
}

// Kind groups failures by how callers should react to them.
type Kind int

const (
	KindNone Kind = iota
	KindConnectivity
	KindAuthentication
	KindAuthorization
	KindValidation
	KindServer
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConnectivity:
		return "connectivity"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Retryable reports whether a plain retry may succeed.
func (k Kind) Retryable() bool {
	return k == KindConnectivity || k == KindServer
}

// Classify maps an error to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	f, ok := AsFailure(err)
	if !ok {
		return KindUnknown
	}
	switch {
	case f.Status == 0:
		return KindConnectivity
	case f.Status == http.StatusUnauthorized:
		return KindAuthentication
	case f.Status == http.StatusForbidden:
		return KindAuthorization
	case f.Status >= 400 && f.Status < 500:
		return KindValidation
	case f.Status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

func IsConnectivity(err error) bool { return Classify(err) == KindConnectivity }
func IsUnauthorized(err error) bool { return Classify(err) == KindAuthentication }
func IsForbidden(err error) bool    { return Classify(err) == KindAuthorization }
func IsClientError(err error) bool  { return Classify(err) == KindValidation }
func IsServerError(err error) bool  { return Classify(err) == KindServer }

// User-facing notices.
const (
	NoticeConnectivity  = "We couldn't reach the store. Check your connection and try again."
	NoticeUnauthorized  = "Your email or password is incorrect."
	NoticeForbidden     = "You are not allowed to do that."
	NoticeValidation    = "Something about that request wasn't right. Please check and try again."
	NoticeServerFailure = "Something went wrong on our side. Please try again."
)

// UserMessage renders err as the notice a storefront surface shows.
// Validation failures prefer the server-provided message.
func UserMessage(err error) string {
	switch Classify(err) {
	case KindNone:
		return ""
	case KindConnectivity:
		return NoticeConnectivity
	case KindAuthentication:
		return NoticeUnauthorized
	case KindAuthorization:
		if msg, ok := serverMessage(err); ok {
			return msg
		}
		return NoticeForbidden
	case KindValidation:
		if msg, ok := serverMessage(err); ok {
			return msg
		}
		return NoticeValidation
	default:
		return NoticeServerFailure
	}
}

// serverMessage returns the message the server put in the failure body, if
// any. A message equal to the status text is the fallback, not the server's.
func serverMessage(err error) (string, bool) {
	f, ok := AsFailure(err)
	if !ok || f.Body == nil || f.Message == "" || f.Message == http.StatusText(f.Status) {
		return "", false
	}
	return f.Message, true
}
