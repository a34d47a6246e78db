package hidroweb

import "fmt"

// AuthenticationError is returned when the service rejects the configured
// credentials or does not hand out a token
type AuthenticationError struct {
	StatusCode int
	Message    string
}

func (err *AuthenticationError) Error() string {
	if err.StatusCode > 0 {
		return fmt.Sprintf("hidroweb: authentication failed (%d): %s", err.StatusCode, err.Message)
	}
	return fmt.Sprintf("hidroweb: authentication failed: %s", err.Message)
}

// ConnectionError is returned when a request could not be delivered at all,
// even after exhausting the configured retry budget
type ConnectionError struct {
	Attempts int
	Last     error
}

func (err *ConnectionError) Error() string {
	return fmt.Sprintf("hidroweb: request failed after %d attempt(s): %s", err.Attempts, err.Last)
}

func (err *ConnectionError) Unwrap() error {
	return err.Last
}

// APIError is returned when the service answers with a non-2xx status other
// than the internally handled 401, or with a body that is not valid JSON
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Body       []byte
}

func (err *APIError) Error() string {
	return fmt.Sprintf("hidroweb: %s answered (%d): %s", err.Endpoint, err.StatusCode, err.Message)
}

// ValidationError is returned when caller-supplied input fails a precondition
// before any request is issued
type ValidationError struct {
	Field   string
	Message string
}

func (err *ValidationError) Error() string {
	if err.Field != "" {
		return fmt.Sprintf("hidroweb: invalid %s: %s", err.Field, err.Message)
	}
	return fmt.Sprintf("hidroweb: %s", err.Message)
}
