package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"licitasearch/searchservice/internal/domain"
)

// foldTransformer strips combining marks after NFD decomposition so that
// "serviço" and "servico" compare equal. Keyword extraction upstream is not
// guaranteed to preserve accents.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldTerm(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}
	folded, _, err := transform.String(foldTransformer, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// recordFilter holds the pre-folded term sets for one filter pass. Building
// it once per search avoids re-folding every term per record.
type recordFilter struct {
	include  []string
	exclude  []string
	minValue *float64
	maxValue *float64
}

func newRecordFilter(filters domain.Filters) recordFilter {
	include := make([]string, 0, len(filters.Keywords))
	for _, keyword := range filters.Keywords {
		if term := foldTerm(keyword); term != "" {
			include = append(include, term)
		}
	}
	for _, group := range filters.SynonymGroups {
		for _, synonym := range group {
			if term := foldTerm(synonym); term != "" {
				include = append(include, term)
			}
		}
	}

	exclude := make([]string, 0, len(filters.Blacklist))
	for _, banned := range filters.Blacklist {
		if term := foldTerm(banned); term != "" {
			exclude = append(exclude, term)
		}
	}

	return recordFilter{
		include:  include,
		exclude:  exclude,
		minValue: filters.MinValue,
		maxValue: filters.MaxValue,
	}
}

// matches reports whether a record passes inclusion, survives exclusion and
// satisfies the value range. The record itself is never modified.
func (f recordFilter) matches(record domain.ProcurementRecord) bool {
	description := foldTerm(record.ObjetoCompra)

	if len(f.include) > 0 {
		found := false
		for _, term := range f.include {
			if strings.Contains(description, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, term := range f.exclude {
		if strings.Contains(description, term) {
			return false
		}
	}

	value := comparisonValue(record)
	if f.minValue != nil && value < *f.minValue {
		return false
	}
	if f.maxValue != nil && value > *f.maxValue {
		return false
	}
	return true
}

// comparisonValue picks the larger of the estimated and homologated values,
// treating absent values as zero.
func comparisonValue(record domain.ProcurementRecord) float64 {
	estimated := 0.0
	if record.ValorTotalEstimado != nil {
		estimated = *record.ValorTotalEstimado
	}
	homologated := 0.0
	if record.ValorTotalHomologado != nil {
		homologated = *record.ValorTotalHomologado
	}
	if homologated > estimated {
		return homologated
	}
	return estimated
}

// FilterRecords applies the consolidated keyword/synonym inclusion, blacklist
// exclusion and value-range rules in a single stable pass. The fetch layer
// and the boundary previously each ran a partial copy of these rules; the
// shared pass enforces both rule sets before the final response.
func FilterRecords(records []domain.ProcurementRecord, filters domain.Filters) []domain.ProcurementRecord {
	f := newRecordFilter(filters)
	kept := make([]domain.ProcurementRecord, 0, len(records))
	for _, record := range records {
		if f.matches(record) {
			kept = append(kept, record)
		}
	}
	return kept
}
