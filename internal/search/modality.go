package search

import (
	"sort"
	"strings"

	"licitasearch/searchservice/internal/domain"
)

// modalityTable maps the normalized human-readable modality names to the
// numeric codes the procurement API understands. The table is bidirectional:
// codeNames below is derived from it at init.
var modalityTable = map[string]int{
	"leilão eletrônico":         1,
	"diálogo competitivo":       2,
	"concurso":                  3,
	"concorrência eletrônica":   4,
	"concorrência presencial":   5,
	"pregão eletrônico":         6,
	"pregão presencial":         7,
	"dispensa":                  8,
	"inexigibilidade":           9,
	"manifestação de interesse": 10,
	"pré-qualificação":          11,
	"credenciamento":            12,
	"leilão presencial":         13,
}

var codeNames = func() map[int]string {
	names := make(map[int]string, len(modalityTable))
	for name, code := range modalityTable {
		names[code] = name
	}
	return names
}()

// modalitySuffix is trimmed before lookup so names like "dispensa de
// licitação" resolve to the bare table entry. A fixed normalization, not a
// fuzzy match.
const modalitySuffix = " de licitação"

// NormalizeModalityName lowercases, trims whitespace and drops the trailing
// "de licitação" suffix.
func NormalizeModalityName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, modalitySuffix)
	return strings.TrimSpace(name)
}

// ResolveModalities maps human-readable modality names to facet codes.
// Unknown names are dropped without error. An empty input resolves to the
// full table, in ascending code order.
func ResolveModalities(names []string) []int {
	if len(names) == 0 {
		return AllModalityCodes()
	}

	codes := make([]int, 0, len(names))
	seen := make(map[int]struct{}, len(names))
	for _, raw := range names {
		code, ok := modalityTable[NormalizeModalityName(raw)]
		if !ok {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// UnresolvedModalities returns the input names that have no table entry,
// for diagnostics logging at the call site.
func UnresolvedModalities(names []string) []string {
	var unknown []string
	for _, raw := range names {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if _, ok := modalityTable[NormalizeModalityName(raw)]; !ok {
			unknown = append(unknown, raw)
		}
	}
	return unknown
}

// AllModalityCodes returns every known facet code in ascending order.
func AllModalityCodes() []int {
	codes := make([]int, 0, len(codeNames))
	for code := range codeNames {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// ModalityName returns the canonical name for a facet code, or "" when the
// code is unknown.
func ModalityName(code int) string {
	return codeNames[code]
}

// Modalities lists the full static table for the HTTP surface.
func Modalities() []domain.ModalityInfo {
	codes := AllModalityCodes()
	items := make([]domain.ModalityInfo, 0, len(codes))
	for _, code := range codes {
		items = append(items, domain.ModalityInfo{Code: code, Name: codeNames[code]})
	}
	return items
}
