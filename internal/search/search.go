package search

// Result is a single note search hit returned to the caller.
type Result struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Query describes an owner-scoped note search.
type Query struct {
	Text    string
	OwnerID string
	Limit   int
	Offset  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// NoteRecord is the data we index for a note.
type NoteRecord struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"ownerId"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// Searcher can execute a full-text note search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}
