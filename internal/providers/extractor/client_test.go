package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"licitasearch/searchservice/internal/domain"
)

func TestEnabled(t *testing.T) {
	if NewClient(Config{}).Enabled() {
		t.Fatalf("client without a base url must be disabled")
	}
	if !NewClient(Config{BaseURL: "http://extractor.local"}).Enabled() {
		t.Fatalf("client with a base url must be enabled")
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must be disabled")
	}
}

func TestExtractPostsQuestionAndDecodesFilters(t *testing.T) {
	var gotPath, gotQuestion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var payload struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotQuestion = payload.Question
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"palavrasChave": ["limpeza"],
			"sinonimos": [["higienização", "asseio"]],
			"valorMin": 50000,
			"estado": "SP",
			"modalidades": ["pregão eletrônico"]
		}`))
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL})

	filters, err := client.Extract(context.Background(), "licitações de limpeza acima de 50 mil em SP")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if gotPath != "/extract" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuestion != "licitações de limpeza acima de 50 mil em SP" {
		t.Fatalf("question not forwarded, got %q", gotQuestion)
	}
	if len(filters.Keywords) != 1 || filters.Keywords[0] != "limpeza" {
		t.Fatalf("keywords not decoded: %+v", filters)
	}
	if len(filters.SynonymGroups) != 1 || len(filters.SynonymGroups[0]) != 2 {
		t.Fatalf("synonym groups not decoded: %+v", filters)
	}
	if filters.MinValue == nil || *filters.MinValue != 50000 || filters.State != "SP" {
		t.Fatalf("filters not decoded: %+v", filters)
	}
	if len(filters.Modalities) != 1 || filters.Modalities[0] != "pregão eletrônico" {
		t.Fatalf("modalities not decoded: %+v", filters)
	}
}

func TestExtractNon200BecomesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("model backend unavailable"))
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Extract(context.Background(), "limpeza")
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != 502 || upstream.Message != "model backend unavailable" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestExtractMalformedPayloadIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.Extract(context.Background(), "limpeza")
	if err == nil {
		t.Fatalf("malformed payload must fail extraction")
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		t.Fatalf("decode failures are not upstream errors: %v", err)
	}
}
