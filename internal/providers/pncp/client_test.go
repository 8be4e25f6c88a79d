package pncp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"licitasearch/searchservice/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL}), server
}

func TestFetchPageEncodesQueryParams(t *testing.T) {
	var captured url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/contratacoes/publicacao" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		captured = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"totalRegistros":0,"totalPaginas":0,"numeroPagina":1,"empty":true}`))
	})

	_, err := client.FetchPage(context.Background(), domain.PageQuery{
		ModalityCode: 6,
		Page:         2,
		PageSize:     50,
		State:        "sp",
		MinValue:     floatPtr(10000.5),
		MaxValue:     floatPtr(500000),
		StartDate:    "20240110",
		EndDate:      "20240315",
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	want := map[string]string{
		"tamanhoPagina":               "50",
		"pagina":                      "2",
		"codigoModalidadeContratacao": "6",
		"uf":                          "SP",
		"valorMinimo":                 "10000.5",
		"valorMaximo":                 "500000",
		"dataInicial":                 "20240110",
		"dataFinal":                   "20240315",
	}
	for key, value := range want {
		if got := captured.Get(key); got != value {
			t.Fatalf("param %s = %q, want %q", key, got, value)
		}
	}
}

func TestFetchPageOmitsUnsetParams(t *testing.T) {
	var captured url.Values
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 1, Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	for _, key := range []string{"uf", "valorMinimo", "valorMaximo", "dataInicial", "dataFinal"} {
		if captured.Has(key) {
			t.Fatalf("param %s must be omitted when unset, got %q", key, captured.Get(key))
		}
	}
}

func TestFetchPageDecodesPublicationPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [{
				"numeroControlePNCP": "00038000000120240000001",
				"objetoCompra": "Serviço de limpeza urbana",
				"valorTotalEstimado": 60000,
				"modalidadeId": 6,
				"modalidadeNome": "Pregão - Eletrônico",
				"orgaoEntidade": {"razaoSocial": "Prefeitura Municipal", "cnpj": "00038000000100"},
				"unidadeOrgao": {"municipioNome": "São Paulo", "ufSigla": "SP"}
			}],
			"totalRegistros": 123,
			"totalPaginas": 3,
			"numeroPagina": 1,
			"paginasRestantes": 2,
			"empty": false
		}`))
	})

	page, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 6, Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if page.TotalRegistros != 123 || page.TotalPaginas != 3 || page.PaginasRestantes != 2 {
		t.Fatalf("pagination envelope not decoded: %+v", page)
	}
	if len(page.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(page.Data))
	}
	record := page.Data[0]
	if record.ObjetoCompra != "Serviço de limpeza urbana" || record.ModalidadeID != 6 {
		t.Fatalf("record not decoded: %+v", record)
	}
	if record.ValorTotalEstimado == nil || *record.ValorTotalEstimado != 60000 {
		t.Fatalf("estimated value not decoded: %+v", record)
	}
	if record.OrgaoEntidade == nil || record.OrgaoEntidade.CNPJ != "00038000000100" {
		t.Fatalf("org entity not decoded: %+v", record.OrgaoEntidade)
	}
	if record.UnidadeOrgao == nil || record.UnidadeOrgao.UFSigla != "SP" {
		t.Fatalf("org unit not decoded: %+v", record.UnidadeOrgao)
	}
}

func TestFetchPageNoContentMeansEmptyFacet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	page, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 6, Page: 3, PageSize: 50})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !page.Empty || len(page.Data) != 0 {
		t.Fatalf("204 must yield an empty page, got %+v", page)
	}
	if page.NumeroPagina != 3 {
		t.Fatalf("page number must be backfilled from the query, got %d", page.NumeroPagina)
	}
}

func TestFetchPageNon2xxBecomesUpstreamError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message": "Parâmetro dataInicial inválido"}`))
	})

	_, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 6, Page: 1, PageSize: 50})
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != 422 || upstream.Message != "Parâmetro dataInicial inválido" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestFetchPageReadsErrorFieldFallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "Not Found"}`))
	})

	_, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 6, Page: 1, PageSize: 50})
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != 404 || upstream.Message != "Not Found" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestFetchPageMalformedBodyEndsFacet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})

	page, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 6, Page: 2, PageSize: 50})
	if err != nil {
		t.Fatalf("malformed 200 body must not be an error: %v", err)
	}
	if !page.Empty || page.NumeroPagina != 2 {
		t.Fatalf("malformed body must end the facet as empty, got %+v", page)
	}
}

func TestFetchPageSendsIdentityHeaders(t *testing.T) {
	var userAgent, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, UserAgent: "licita-search/test"})

	if _, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 1, Page: 1, PageSize: 50}); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if userAgent != "licita-search/test" || accept != "application/json" {
		t.Fatalf("unexpected headers: ua=%q accept=%q", userAgent, accept)
	}
}

func TestFetchPageTransportErrorPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()
	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.FetchPage(context.Background(), domain.PageQuery{ModalityCode: 1, Page: 1, PageSize: 50})
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		t.Fatalf("transport failures must not be wrapped as upstream errors: %v", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.baseURL != defaultBaseURL {
		t.Fatalf("unexpected default base url: %q", client.baseURL)
	}
	if client.userAgent != defaultUserAgent {
		t.Fatalf("unexpected default user agent: %q", client.userAgent)
	}

	client = NewClient(Config{BaseURL: "https://example.test/api/"})
	if client.baseURL != "https://example.test/api" {
		t.Fatalf("trailing slash must be trimmed, got %q", client.baseURL)
	}
}
