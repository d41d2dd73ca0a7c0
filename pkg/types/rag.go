package types

// RAGSearchRequest is the body of POST /rag/search. K defaults to 4
// when omitted.
type RAGSearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// RetrievalResult is one ranked passage returned by similarity search.
// Source is the basename of the ingested file; Score is the index's own
// relevance score, in the index's result order.
type RetrievalResult struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Score   float32 `json:"score"`
}

// RAGSearchResponse is the body returned by POST /rag/search.
type RAGSearchResponse struct {
	Results   []RetrievalResult `json:"results"`
	QueryEcho string            `json:"query_echo"`
}
