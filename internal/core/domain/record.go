package domain

// Record is an indexed product or customer. It is never mutated after indexing.
type Record struct {
	ID        string            `json:"id" yaml:"id"`
	Category  Category          `json:"-" yaml:"-"`
	Embedding []float32         `json:"embedding" yaml:"embedding"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

type Query struct {
	Text            string
	Category        Category
	Limit           int
	IncludeAnalysis bool
}

// Match is a raw nearest-neighbour hit with a cosine score in [-1, 1].
type Match struct {
	RecordID string
	Score    float64
	Metadata map[string]string
}

type SearchResult struct {
	RecordID        string            `json:"record_id"`
	SimilarityScore float64           `json:"similarity_score"`
	Rank            int               `json:"rank"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// SourceRecord is a row from the relational store before it gets embedded.
type SourceRecord struct {
	ID       string
	Category Category
	Text     string
	Metadata map[string]string
}

type IndexStatus struct {
	Available bool           `json:"available"`
	Counts    map[string]int `json:"counts"`
}

// CustomerProfile is what product recommendations are derived from. TopCategory and
// TopBrand describe the product the customer spent most on and stay empty without
// purchases.
type CustomerProfile struct {
	ID                string
	Name              string
	Gender            string
	LoyaltyLevel      string
	TopCategory       string
	TopBrand          string
	PurchasedProducts []string
}

type Recommendation struct {
	CustomerID   string
	CustomerName string
	Results      []SearchResult
}
