package model

// SlideRecord is the normalized extracted content of a single slide.
// Records are created once during extraction and never mutated afterwards.
type SlideRecord struct {
	// Index is the 1-based position of the slide in presentation order.
	Index int `json:"index"`

	// Title is the slide title text. Empty when the slide has no title
	// placeholder.
	Title string `json:"title"`

	// BodyTexts holds one entry per non-title text shape, in document
	// order. Entries may be empty strings; they are retained so that
	// positions line up with the visual shapes they came from.
	BodyTexts []string `json:"body_texts"`

	// TableTexts holds one entry per table, flattened row-major: cells
	// joined with " | " within a row, rows joined with newlines.
	TableTexts []string `json:"table_texts"`

	// ImageTexts holds one OCR result per embedded image, in document
	// order. An unreadable image contributes an empty string.
	ImageTexts []string `json:"image_texts"`
}

// IsEmpty reports whether the slide contributed no text at all.
func (s SlideRecord) IsEmpty() bool {
	if s.Title != "" {
		return false
	}
	for _, t := range s.BodyTexts {
		if t != "" {
			return false
		}
	}
	for _, t := range s.TableTexts {
		if t != "" {
			return false
		}
	}
	for _, t := range s.ImageTexts {
		if t != "" {
			return false
		}
	}
	return true
}
