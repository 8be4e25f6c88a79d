package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"licitasearch/searchservice/internal/domain"
	"licitasearch/searchservice/internal/metrics"
)

// PageClient fetches one publication page from the procurement API.
type PageClient interface {
	FetchPage(ctx context.Context, query domain.PageQuery) (domain.PageResponse, error)
}

type facetResult struct {
	status  domain.ModalityStatus
	records []domain.ProcurementRecord
}

// fetchAll queries every facet code through a bounded worker pool. Facets
// fail independently: one broken modality never aborts its siblings, and
// whatever a failed facet collected before breaking stays in the aggregate.
// The returned records are ordered by facet position, then page order.
func (s *Service) fetchAll(ctx context.Context, codes []int, base domain.PageQuery) ([]domain.ProcurementRecord, []domain.ModalityStatus) {
	statuses := make([]domain.ModalityStatus, len(codes))
	collected := make([][]domain.ProcurementRecord, len(codes))

	sem := semaphore.NewWeighted(s.concurrency)
	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(index, code int) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				statuses[index] = domain.ModalityStatus{
					Code:  code,
					Name:  ModalityName(code),
					Error: "context cancelled",
				}
				return
			}
			defer sem.Release(1)

			now := time.Now()
			if blocked, until, lastErr := s.isModalityBlocked(code, now); blocked {
				s.logger.Warn("facet skipped: temporarily unhealthy",
					slog.Int("modality", code),
					slog.String("until", until.UTC().Format(time.RFC3339)),
					slog.String("lastError", lastErr),
				)
				statuses[index] = domain.ModalityStatus{
					Code:  code,
					Name:  ModalityName(code),
					Error: fmt.Sprintf("facet temporarily unhealthy until %s: %s", until.UTC().Format(time.RFC3339), lastErr),
				}
				return
			}

			result := s.fetchModality(ctx, code, base)
			statuses[index] = result.status
			collected[index] = result.records
		}(i, code)
	}
	wg.Wait()

	total := 0
	for _, records := range collected {
		total += len(records)
	}
	aggregate := make([]domain.ProcurementRecord, 0, total)
	for _, records := range collected {
		aggregate = append(aggregate, records...)
	}
	return aggregate, statuses
}

// fetchModality walks one facet's pages starting at page 1 until the
// reported page count is exhausted, the first page comes back empty, or a
// request fails. A failure abandons this facet only; records from pages
// already fetched are kept.
func (s *Service) fetchModality(ctx context.Context, code int, base domain.PageQuery) facetResult {
	status := domain.ModalityStatus{Code: code, Name: ModalityName(code)}
	var records []domain.ProcurementRecord

	totalPages := 1
	for page := 1; page <= totalPages; page++ {
		// Shared token bucket across all facets keeps the total external
		// request rate inside the same envelope the old fixed delay did.
		if err := s.limiter.Wait(ctx); err != nil {
			status.Error = "rate limit wait cancelled"
			status.Count = len(records)
			return facetResult{status: status, records: records}
		}

		query := base
		query.ModalityCode = code
		query.Page = page

		startedAt := time.Now()
		var response domain.PageResponse
		err := RetryWithBackoff(ctx, s.retry, func() error {
			var fetchErr error
			response, fetchErr = s.client.FetchPage(ctx, query)
			return fetchErr
		})
		s.recordModalityResult(code, err, time.Since(startedAt), time.Now())

		if err != nil {
			classified := Classify(err)
			s.logger.Warn("facet page fetch failed",
				slog.Int("modality", code),
				slog.Int("page", page),
				slog.Int("status", classified.Status),
				slog.String("error", classified.Error),
			)
			status.Error = classified.Error
			status.Count = len(records)
			return facetResult{status: status, records: records}
		}

		status.Pages++
		records = append(records, response.Data...)
		metrics.PagesFetchedTotal.Inc()
		metrics.RecordsFetchedTotal.Add(float64(len(response.Data)))

		if page == 1 {
			totalPages = response.TotalPaginas
			if totalPages <= 0 || response.Empty || len(response.Data) == 0 {
				break
			}
		}
		// A page without records means the facet ended early; treat it as
		// "no more pages" rather than an error.
		if len(response.Data) == 0 {
			break
		}
	}

	status.OK = true
	status.Count = len(records)
	return facetResult{status: status, records: records}
}
