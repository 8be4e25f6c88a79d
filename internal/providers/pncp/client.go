package pncp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"licitasearch/searchservice/internal/domain"
)

const (
	defaultBaseURL   = "https://pncp.gov.br/api/consulta"
	defaultUserAgent = "licita-search/1.0"
	publicationPath  = "/v1/contratacoes/publicacao"

	maxBodyBytes = 8 * 1024 * 1024
)

type Config struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// Client fetches publication pages from the national procurement portal.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// errorBody is the upstream error payload shape; either field may carry the
// human-readable message depending on the endpoint.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewClient(cfg Config) *Client {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		client:    client,
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

// FetchPage requests a single publication page for one modality facet.
// Non-2xx replies become *domain.UpstreamError; transport failures are
// returned as-is for the caller to classify.
func (c *Client) FetchPage(ctx context.Context, query domain.PageQuery) (domain.PageResponse, error) {
	uri, err := url.Parse(c.baseURL + publicationPath)
	if err != nil {
		return domain.PageResponse{}, fmt.Errorf("invalid endpoint: %w", err)
	}

	params := uri.Query()
	params.Set("tamanhoPagina", strconv.Itoa(query.PageSize))
	params.Set("pagina", strconv.Itoa(query.Page))
	params.Set("codigoModalidadeContratacao", strconv.Itoa(query.ModalityCode))
	if state := strings.ToUpper(strings.TrimSpace(query.State)); state != "" {
		params.Set("uf", state)
	}
	if query.MinValue != nil {
		params.Set("valorMinimo", strconv.FormatFloat(*query.MinValue, 'f', -1, 64))
	}
	if query.MaxValue != nil {
		params.Set("valorMaximo", strconv.FormatFloat(*query.MaxValue, 'f', -1, 64))
	}
	if query.StartDate != "" {
		params.Set("dataInicial", query.StartDate)
	}
	if query.EndDate != "" {
		params.Set("dataFinal", query.EndDate)
	}
	uri.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.String(), nil)
	if err != nil {
		return domain.PageResponse{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.PageResponse{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.PageResponse{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.PageResponse{}, &domain.UpstreamError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(payload),
		}
	}

	// The portal answers 204 with an empty body when a facet has no
	// publications for the window.
	if resp.StatusCode == http.StatusNoContent || len(payload) == 0 {
		return domain.PageResponse{Empty: true, NumeroPagina: query.Page}, nil
	}

	var page domain.PageResponse
	if err := json.Unmarshal(payload, &page); err != nil {
		// A decodable-but-unexpected body counts as "no more pages", not
		// as a failure: the facet simply ends here.
		return domain.PageResponse{Empty: true, NumeroPagina: query.Page}, nil
	}
	if page.NumeroPagina == 0 {
		page.NumeroPagina = query.Page
	}
	return page, nil
}

func extractErrorMessage(payload []byte) string {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if message := strings.TrimSpace(body.Message); message != "" {
		return message
	}
	return strings.TrimSpace(body.Error)
}
