package search

import (
	"strconv"
	"time"

	"licitasearch/searchservice/internal/domain"
	"licitasearch/searchservice/internal/metrics"
)

const (
	modalityFailureThreshold = 3
	modalityBlockBase        = 2 * time.Minute
	modalityBlockMax         = 15 * time.Minute
)

type modalityHealth struct {
	consecutiveFailures int
	blockedUntil        time.Time
	lastError           string
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	lastLatency         time.Duration
	totalRequests       int64
	totalFailures       int64
}

func (s *Service) isModalityBlocked(code int, now time.Time) (bool, time.Time, string) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[code]
	if state == nil {
		return false, time.Time{}, ""
	}
	if state.blockedUntil.IsZero() || now.After(state.blockedUntil) {
		return false, time.Time{}, ""
	}
	return true, state.blockedUntil, state.lastError
}

// recordModalityResult updates one facet's health counters after an upstream
// page request. Repeated failures trip a temporary block so a broken facet
// stops consuming the shared request budget.
func (s *Service) recordModalityResult(code int, err error, latency time.Duration, now time.Time) {
	label := strconv.Itoa(code)

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	state := s.health[code]
	if state == nil {
		state = &modalityHealth{}
		s.health[code] = state
	}
	state.totalRequests++
	if latency > 0 {
		state.lastLatency = latency
		metrics.ModalityRequestDuration.WithLabelValues(label).Observe(latency.Seconds())
	}

	if err == nil {
		state.consecutiveFailures = 0
		state.blockedUntil = time.Time{}
		state.lastError = ""
		state.lastSuccessAt = now
		metrics.ModalityRequestsTotal.WithLabelValues(label, "ok").Inc()
		metrics.ModalityAvailable.WithLabelValues(label).Set(1)
		return
	}

	state.consecutiveFailures++
	state.totalFailures++
	state.lastFailureAt = now
	state.lastError = err.Error()
	metrics.ModalityRequestsTotal.WithLabelValues(label, "error").Inc()

	if state.consecutiveFailures >= modalityFailureThreshold {
		state.blockedUntil = now.Add(blockDuration(state.consecutiveFailures))
		metrics.ModalityAvailable.WithLabelValues(label).Set(0)
	}
}

// blockDuration grows the facet block exponentially past the failure
// threshold, capped at modalityBlockMax.
func blockDuration(consecutiveFailures int) time.Duration {
	exponent := consecutiveFailures - modalityFailureThreshold
	if exponent < 0 {
		exponent = 0
	}
	d := modalityBlockBase
	for i := 0; i < exponent; i++ {
		d *= 2
		if d > modalityBlockMax {
			return modalityBlockMax
		}
	}
	return d
}

// ModalityDiagnostics snapshots the per-facet health counters for the
// operations endpoint.
func (s *Service) ModalityDiagnostics() []domain.ModalityDiagnostics {
	codes := AllModalityCodes()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	items := make([]domain.ModalityDiagnostics, 0, len(codes))
	for _, code := range codes {
		item := domain.ModalityDiagnostics{
			Code: code,
			Name: ModalityName(code),
		}
		if state := s.health[code]; state != nil {
			item.ConsecutiveFailures = state.consecutiveFailures
			if !state.blockedUntil.IsZero() {
				item.BlockedUntil = state.blockedUntil.UTC().Format(time.RFC3339)
			}
			item.LastError = state.lastError
			item.LastLatencyMS = state.lastLatency.Milliseconds()
			item.TotalRequests = state.totalRequests
			item.TotalFailures = state.totalFailures
		}
		items = append(items, item)
	}
	return items
}
