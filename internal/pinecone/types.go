package pinecone

// RerankRequest is the body of POST /rerank.
type RerankRequest struct {
	Model     string           `json:"model"`
	Query     string           `json:"query"`
	Documents []RerankDocument `json:"documents"`
	// TopN is omitted when nil so the service applies its own limit.
	TopN            *int              `json:"top_n,omitempty"`
	ReturnDocuments bool              `json:"return_documents"`
	RankFields      []string          `json:"rank_fields,omitempty"`
	Parameters      *RerankParameters `json:"parameters,omitempty"`
}

// RerankDocument is a single candidate. Only the text field is ranked.
type RerankDocument struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// RerankParameters holds model-specific options.
type RerankParameters struct {
	Truncate string `json:"truncate,omitempty"`
}

// RerankResponse is the decoded body of a successful rerank call.
type RerankResponse struct {
	Model string           `json:"model"`
	Data  []RankedDocument `json:"data"`
	Usage RerankUsage      `json:"usage"`
}

// RankedDocument points back into the request's document list.
type RankedDocument struct {
	Index    int             `json:"index"`
	Score    float64         `json:"score"`
	Document *RerankDocument `json:"document,omitempty"`
}

// RerankUsage reports billing units consumed by the call.
type RerankUsage struct {
	RerankUnits int `json:"rerank_units"`
}

// IntPtr returns a pointer to n, for RerankRequest.TopN.
func IntPtr(n int) *int {
	return &n
}
