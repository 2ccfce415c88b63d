package domain

// CategoryUncategorized is assigned when no configured category is similar enough.
// It is never part of the configured set and never embedded.
const CategoryUncategorized = "Uncategorized"

type RawDocument struct {
	Data     []byte
	Filename string
}

// ExtractedMetadata is the best-effort bibliographic description of a file.
// Format is the lowercase extension without the dot.
type ExtractedMetadata struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	PageCount int    `json:"page_count"`
	Format    string `json:"format"`
}

// ParsedFields is what a single format parser recovers from raw bytes.
type ParsedFields struct {
	Title     string
	Author    string
	PageCount int
}

type CategoryDefinition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type CategoryAssignment struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func (a CategoryAssignment) IsFallback() bool {
	return a.Category == CategoryUncategorized
}
