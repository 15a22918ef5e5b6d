package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deckcheck/internal/config"
)

// Engine extracts text from images. Implementations return best-effort
// plain text; an empty string with a nil error means the image simply has
// no recognizable text.
type Engine interface {
	ExtractImage(ctx context.Context, image []byte) (string, error)
}

// NewEngine creates an Engine based on config.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return NewTesseract(cfg.TesseractPath, cfg.Language), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
