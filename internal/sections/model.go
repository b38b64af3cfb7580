package sections

// Section is one chunk of a document's normalized markdown. The ID is
// assigned at insert time and increases in insertion order within a
// document, so it doubles as a stable tiebreaker when similarities are
// equal. Embedding is nil until the embedding pass fills it in.
type Section struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"documentId"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}

// Embedded reports whether the section has received its embedding.
func (s Section) Embedded() bool {
	return s.Embedding != nil
}

// Match is one similarity search hit.
type Match struct {
	SectionID  int64   `json:"sectionId"`
	DocumentID string  `json:"documentId"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
