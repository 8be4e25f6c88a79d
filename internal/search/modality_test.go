package search

import (
	"reflect"
	"testing"
)

func TestResolveModalitiesKnownNames(t *testing.T) {
	codes := ResolveModalities([]string{"pregão eletrônico", "leilão eletrônico"})
	if !reflect.DeepEqual(codes, []int{6, 1}) {
		t.Fatalf("expected [6 1], got %v", codes)
	}
}

func TestResolveModalitiesTrimsSuffix(t *testing.T) {
	codes := ResolveModalities([]string{"Dispensa de Licitação"})
	if !reflect.DeepEqual(codes, []int{8}) {
		t.Fatalf("expected [8], got %v", codes)
	}
}

func TestResolveModalitiesDropsUnknown(t *testing.T) {
	codes := ResolveModalities([]string{"pregão eletrônico", "tomada de preços", "leilão eletrônico"})
	if !reflect.DeepEqual(codes, []int{6, 1}) {
		t.Fatalf("expected unknown name dropped, got %v", codes)
	}
}

func TestResolveModalitiesDeduplicates(t *testing.T) {
	codes := ResolveModalities([]string{"concurso", "Concurso", "concurso de licitação"})
	if !reflect.DeepEqual(codes, []int{3}) {
		t.Fatalf("expected [3], got %v", codes)
	}
}

func TestResolveModalitiesEmptyMeansAll(t *testing.T) {
	codes := ResolveModalities(nil)
	if len(codes) != 13 {
		t.Fatalf("expected all 13 codes, got %d: %v", len(codes), codes)
	}
	for i, code := range codes {
		if code != i+1 {
			t.Fatalf("expected ascending codes 1..13, got %v", codes)
		}
	}
}

func TestResolveModalitiesAllUnknownYieldsNone(t *testing.T) {
	codes := ResolveModalities([]string{"carta convite"})
	if len(codes) != 0 {
		t.Fatalf("expected no codes for unknown-only input, got %v", codes)
	}
}

func TestUnresolvedModalities(t *testing.T) {
	unknown := UnresolvedModalities([]string{"pregão eletrônico", "carta convite", ""})
	if !reflect.DeepEqual(unknown, []string{"carta convite"}) {
		t.Fatalf("expected [carta convite], got %v", unknown)
	}
}

func TestModalityNameRoundTrip(t *testing.T) {
	for _, code := range AllModalityCodes() {
		name := ModalityName(code)
		if name == "" {
			t.Fatalf("code %d has no name", code)
		}
		resolved := ResolveModalities([]string{name})
		if len(resolved) != 1 || resolved[0] != code {
			t.Fatalf("name %q resolved to %v, want [%d]", name, resolved, code)
		}
	}
}

func TestModalityNameUnknownCode(t *testing.T) {
	if name := ModalityName(99); name != "" {
		t.Fatalf("expected empty name for unknown code, got %q", name)
	}
}

func TestModalitiesTableOrdered(t *testing.T) {
	items := Modalities()
	if len(items) != 13 {
		t.Fatalf("expected 13 entries, got %d", len(items))
	}
	if items[5].Code != 6 || items[5].Name != "pregão eletrônico" {
		t.Fatalf("unexpected sixth entry: %+v", items[5])
	}
}
