package domain

// Filters is the structured query the pipeline fans out across modality
// facets. It is either supplied directly by the caller or produced by the
// extraction service from a free-text question.
type Filters struct {
	Keywords      []string   `json:"palavrasChave,omitempty"`
	SynonymGroups [][]string `json:"sinonimos,omitempty"`
	Blacklist     []string   `json:"blacklist,omitempty"`
	MinValue      *float64   `json:"valorMin,omitempty"`
	MaxValue      *float64   `json:"valorMax,omitempty"`
	StartDate     string     `json:"dataInicial,omitempty"`
	EndDate       string     `json:"dataFinal,omitempty"`
	State         string     `json:"estado,omitempty"`
	Modalities    []string   `json:"modalidades,omitempty"`
}

// OrgEntity is the contracting organization sub-record as published by the
// national portal. Consumed read-only.
type OrgEntity struct {
	RazaoSocial string `json:"razaoSocial,omitempty"`
	CNPJ        string `json:"cnpj,omitempty"`
	PoderID     string `json:"poderId,omitempty"`
	EsferaID    string `json:"esferaId,omitempty"`
}

// OrgUnit is the purchasing unit sub-record.
type OrgUnit struct {
	NomeUnidade   string `json:"nomeUnidade,omitempty"`
	CodigoUnidade string `json:"codigoUnidade,omitempty"`
	MunicipioNome string `json:"municipioNome,omitempty"`
	UFSigla       string `json:"ufSigla,omitempty"`
}

// ProcurementRecord mirrors the upstream contracting record. The pipeline
// never mutates one; filtering is a pure selection over these fields.
type ProcurementRecord struct {
	NumeroControlePNCP   string     `json:"numeroControlePNCP,omitempty"`
	ObjetoCompra         string     `json:"objetoCompra"`
	ValorTotalEstimado   *float64   `json:"valorTotalEstimado,omitempty"`
	ValorTotalHomologado *float64   `json:"valorTotalHomologado,omitempty"`
	DataPublicacaoPncp   string     `json:"dataPublicacaoPncp,omitempty"`
	DataAberturaProposta string     `json:"dataAberturaProposta,omitempty"`
	SituacaoCompraNome   string     `json:"situacaoCompraNome,omitempty"`
	ModalidadeID         int        `json:"modalidadeId,omitempty"`
	ModalidadeNome       string     `json:"modalidadeNome,omitempty"`
	ProcessoNumero       string     `json:"processo,omitempty"`
	LinkSistemaOrigem    string     `json:"linkSistemaOrigem,omitempty"`
	OrgaoEntidade        *OrgEntity `json:"orgaoEntidade,omitempty"`
	UnidadeOrgao         *OrgUnit   `json:"unidadeOrgao,omitempty"`
}

// PageResponse is one fetch cycle's envelope from the procurement API.
// Constructed per call, folded into the aggregate, then discarded.
type PageResponse struct {
	Data             []ProcurementRecord `json:"data"`
	TotalRegistros   int                 `json:"totalRegistros"`
	TotalPaginas     int                 `json:"totalPaginas"`
	NumeroPagina     int                 `json:"numeroPagina"`
	PaginasRestantes int                 `json:"paginasRestantes"`
	Empty            bool                `json:"empty"`
}

// ModalityStatus reports one facet's outcome within a single search.
type ModalityStatus struct {
	Code  int    `json:"codigo"`
	Name  string `json:"nome"`
	OK    bool   `json:"ok"`
	Pages int    `json:"paginas"`
	Count int    `json:"registros"`
	Error string `json:"erro,omitempty"`
}

// ResultSet is the filtered aggregate handed to the presentation layer.
type ResultSet struct {
	Data             []ProcurementRecord `json:"data"`
	TotalRegistros   int                 `json:"totalRegistros"`
	TotalPaginas     int                 `json:"totalPaginas"`
	NumeroPagina     int                 `json:"numeroPagina"`
	PaginasRestantes int                 `json:"paginasRestantes"`
	Empty            bool                `json:"empty"`
	Modalities       []ModalityStatus    `json:"modalidades,omitempty"`
	ElapsedMS        int64               `json:"elapsedMs"`
}

// SearchResponse is the uniform result-or-error envelope. Error and Status
// are set only when Success is false.
type SearchResponse struct {
	Success bool       `json:"success"`
	Data    *ResultSet `json:"data,omitempty"`
	Error   string     `json:"error,omitempty"`
	Status  int        `json:"status,omitempty"`
}

// ModalityInfo describes one entry of the static modality table.
type ModalityInfo struct {
	Code int    `json:"codigo"`
	Name string `json:"nome"`
}

// ModalityDiagnostics exposes per-facet health counters for operations.
type ModalityDiagnostics struct {
	Code                int    `json:"codigo"`
	Name                string `json:"nome"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	BlockedUntil        string `json:"blockedUntil,omitempty"`
	LastError           string `json:"lastError,omitempty"`
	LastLatencyMS       int64  `json:"lastLatencyMs,omitempty"`
	TotalRequests       int64  `json:"totalRequests,omitempty"`
	TotalFailures       int64  `json:"totalFailures,omitempty"`
}
