package search

import (
	"errors"
	"net/http"

	"licitasearch/searchservice/internal/domain"
)

const (
	msgNotFound        = "resource not found"
	msgRateLimited     = "rate limited, retry later"
	msgUpstreamDefault = "procurement API request failed"
)

// Classify normalizes any external-call failure into the uniform
// result-or-error envelope. It always returns a value, so it is safe to
// call from inside the facet loop without unwinding the caller.
func Classify(err error) domain.SearchResponse {
	if err == nil {
		return domain.SearchResponse{Success: true}
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.Status {
		case http.StatusNotFound:
			return errorEnvelope(http.StatusNotFound, msgNotFound)
		case http.StatusTooManyRequests:
			return errorEnvelope(http.StatusTooManyRequests, msgRateLimited)
		}
		message := upstream.Message
		if message == "" {
			message = msgUpstreamDefault
		}
		return errorEnvelope(upstream.Status, message)
	}

	// Transport-level failures (timeouts, DNS, refused connections) have no
	// HTTP status of their own.
	return errorEnvelope(http.StatusInternalServerError, err.Error())
}

func errorEnvelope(status int, message string) domain.SearchResponse {
	return domain.SearchResponse{
		Success: false,
		Error:   message,
		Status:  status,
	}
}
