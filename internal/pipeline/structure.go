package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/deckcheck/internal/model"
)

// BuildContext serializes slide records into a single marked-up block for
// the analysis prompt. Every slide emits a marker, even when empty, so
// the model's slide citations stay aligned with presentation order.
func BuildContext(records []model.SlideRecord) string {
	blocks := make([]string, 0, len(records))

	for _, rec := range records {
		var b strings.Builder

		if rec.Title != "" {
			fmt.Fprintf(&b, "--- SLIDE %d: %s ---\n", rec.Index, rec.Title)
			fmt.Fprintf(&b, "TITLE: %s\n", rec.Title)
		} else {
			fmt.Fprintf(&b, "--- SLIDE %d ---\n", rec.Index)
		}

		for _, text := range rec.BodyTexts {
			if text == "" {
				continue
			}
			b.WriteString(text)
			b.WriteString("\n")
		}

		for _, table := range rec.TableTexts {
			if table == "" {
				continue
			}
			b.WriteString("TABLE:\n")
			b.WriteString(table)
			b.WriteString("\n")
		}

		for _, text := range rec.ImageTexts {
			if text == "" {
				continue
			}
			fmt.Fprintf(&b, "IMAGE: %s\n", text)
		}

		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}

	return strings.Join(blocks, "\n\n")
}
