package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"licitasearch/searchservice/internal/domain"
	"licitasearch/searchservice/internal/metrics"
)

var (
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidDateRange = errors.New("dataFinal precedes dataInicial")
)

const (
	isoDateLayout      = "2006-01-02"
	upstreamDateLayout = "20060102"

	// The procurement API rejects windows longer than a year; the start
	// date is silently advanced instead of failing the request.
	maxDateWindowDays = 365

	defaultPageSize    = 50
	defaultConcurrency = 4
	defaultUpstreamRPS = 5.0
)

// Service runs the full pipeline for one search request: resolve facets,
// fan out the paginated fetch, merge, filter.
type Service struct {
	client      PageClient
	timeout     time.Duration
	pageSize    int
	concurrency int64
	limiter     *rate.Limiter
	retry       RetryConfig
	logger      *slog.Logger

	healthMu sync.Mutex
	health   map[int]*modalityHealth
}

type ServiceOption func(*Service)

func WithPageSize(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func WithConcurrency(workers int) ServiceOption {
	return func(s *Service) {
		if workers > 0 {
			s.concurrency = int64(workers)
		}
	}
}

// WithUpstreamRate replaces the default shared token bucket limiting
// requests to the procurement API across all facet workers.
func WithUpstreamRate(rps float64, burst int) ServiceOption {
	return func(s *Service) {
		if rps > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

func WithRetryConfig(cfg RetryConfig) ServiceOption {
	return func(s *Service) {
		if cfg.MaxAttempts > 0 {
			s.retry = cfg
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(client PageClient, timeout time.Duration, opts ...ServiceOption) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	svc := &Service{
		client:      client,
		timeout:     timeout,
		pageSize:    defaultPageSize,
		concurrency: defaultConcurrency,
		limiter:     rate.NewLimiter(rate.Limit(defaultUpstreamRPS), 1),
		retry:       DefaultRetryConfig(),
		logger:      slog.Default(),
		health:      make(map[int]*modalityHealth),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Search runs the whole pipeline under an overall deadline. Per-facet
// failures are contained inside the fetch layer; only filter validation
// failures are fatal here.
func (s *Service) Search(ctx context.Context, filters domain.Filters) (domain.ResultSet, error) {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now()

	startDate, endDate, err := upstreamDateRange(filters.StartDate, filters.EndDate)
	if err != nil {
		return domain.ResultSet{}, err
	}

	if unknown := UnresolvedModalities(filters.Modalities); len(unknown) > 0 {
		// Unknown names narrow the facet set silently; surface them in the
		// log so a typo is at least visible to operators.
		s.logger.Warn("unknown modality names dropped", slog.Any("names", unknown))
	}
	codes := ResolveModalities(filters.Modalities)

	base := domain.PageQuery{
		PageSize:  s.pageSize,
		State:     filters.State,
		MinValue:  filters.MinValue,
		MaxValue:  filters.MaxValue,
		StartDate: startDate,
		EndDate:   endDate,
	}

	raw, statuses := s.fetchAll(runCtx, codes, base)
	matched := FilterRecords(raw, filters)
	metrics.RecordsMatchedTotal.Add(float64(len(matched)))

	failed := make([]int, 0, len(statuses))
	for _, status := range statuses {
		if !status.OK {
			failed = append(failed, status.Code)
		}
	}
	s.logger.Info("search completed",
		slog.Int("facets", len(codes)),
		slog.Int("failedFacets", len(failed)),
		slog.Int("rawRecords", len(raw)),
		slog.Int("matched", len(matched)),
		slog.Int64("elapsedMs", time.Since(startedAt).Milliseconds()),
	)
	if len(failed) > 0 {
		s.logger.Warn("search facets partially failed", slog.Any("modalities", failed))
	}

	return domain.ResultSet{
		Data:             matched,
		TotalRegistros:   len(matched),
		TotalPaginas:     1,
		NumeroPagina:     1,
		PaginasRestantes: 0,
		Empty:            len(matched) == 0,
		Modalities:       statuses,
		ElapsedMS:        time.Since(startedAt).Milliseconds(),
	}, nil
}

// upstreamDateRange validates the ISO bounds, clamps the window to 365 days
// ending at the final date, and reformats both for the upstream API.
func upstreamDateRange(startRaw, endRaw string) (string, string, error) {
	var start, end time.Time
	var hasStart, hasEnd bool
	var err error

	if startRaw != "" {
		start, err = time.Parse(isoDateLayout, startRaw)
		if err != nil {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidDate, startRaw)
		}
		hasStart = true
	}
	if endRaw != "" {
		end, err = time.Parse(isoDateLayout, endRaw)
		if err != nil {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidDate, endRaw)
		}
		hasEnd = true
	}

	if hasStart && hasEnd {
		if end.Before(start) {
			return "", "", ErrInvalidDateRange
		}
		if end.Sub(start) > maxDateWindowDays*24*time.Hour {
			start = end.AddDate(0, 0, -maxDateWindowDays)
		}
	}

	startOut := ""
	if hasStart {
		startOut = start.Format(upstreamDateLayout)
	}
	endOut := ""
	if hasEnd {
		endOut = end.Format(upstreamDateLayout)
	}
	return startOut, endOut, nil
}
