package domain

import "fmt"

// UpstreamError is a non-2xx reply from an external service, carrying the
// HTTP status and the upstream message when the body had one.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream HTTP %d", e.Status)
	}
	return fmt.Sprintf("upstream HTTP %d: %s", e.Status, e.Message)
}

// PageQuery is the parameter set for one paginated fetch against the
// procurement API. Dates are pre-formatted as yyyyMMdd by the caller.
type PageQuery struct {
	ModalityCode int
	Page         int
	PageSize     int
	State        string
	MinValue     *float64
	MaxValue     *float64
	StartDate    string
	EndDate      string
}
