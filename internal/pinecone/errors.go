package pinecone

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by NewClient when no API key is configured
// and PINECONE_API_KEY is unset.
var ErrMissingAPIKey = errors.New("pinecone api key is required")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4096

// APIError is returned for any non-2xx response from the inference API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinecone rerank failed: status=%d body=%s", e.StatusCode, e.Body)
}

// IsAPIError reports whether err is, or wraps, an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
