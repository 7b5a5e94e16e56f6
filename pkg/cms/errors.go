package cms

import "errors"

// ErrUnexpectedShape is wrapped when a response decodes but does not have the
// structure a query relies on (for example a missing items array).
var ErrUnexpectedShape = errors.New("unexpected response shape")

// RequestError reports a non-2xx response from the pages API.
type RequestError struct {
	StatusCode int
	Status     string // status line, e.g. "500 Internal Server Error"
	URL        string
}

func (e *RequestError) Error() string {
	return e.Status
}

// NotFoundError indicates a lookup returned no items.
type NotFoundError struct {
	Entity     string // "home page", "topic page"
	Identifier string // slug, when the lookup had one
	Message    string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRequestError reports whether err is, or wraps, a RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
