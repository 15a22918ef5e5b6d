// Package extract turns a presentation archive into normalized per-slide
// text records, running OCR over embedded images.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/deckcheck/internal/model"
	"github.com/sells-group/deckcheck/internal/ocr"
	"github.com/sells-group/deckcheck/internal/pptx"
)

// defaultOCRConcurrency limits parallel OCR calls when no limit is set.
const defaultOCRConcurrency = 4

// ExtractionError indicates the archive could not be opened or parsed.
// It is fatal: nothing downstream can run without slide records.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extractor walks a deck and produces one SlideRecord per slide.
type Extractor struct {
	engine      ocr.Engine
	concurrency int
}

// New creates an Extractor. concurrency bounds parallel OCR calls; values
// below 1 fall back to the default.
func New(engine ocr.Engine, concurrency int) *Extractor {
	if concurrency < 1 {
		concurrency = defaultOCRConcurrency
	}
	return &Extractor{engine: engine, concurrency: concurrency}
}

// Extract opens the archive at path and returns one record per slide in
// presentation order. Text sources are visited in a fixed order (title,
// shapes, tables, images) so downstream evidence is reproducible. OCR runs
// in parallel across images but results are merged back by position; a
// failed OCR call contributes an empty string and never aborts the deck.
func (e *Extractor) Extract(ctx context.Context, path string) ([]model.SlideRecord, error) {
	deck, err := pptx.Open(path)
	if err != nil {
		return nil, &ExtractionError{Path: path, Err: err}
	}

	zap.L().Info("extracting deck",
		zap.String("path", path),
		zap.Int("slides", len(deck.Slides)),
	)

	records := make([]model.SlideRecord, len(deck.Slides))

	type ocrJob struct {
		slide int
		image int
		data  []byte
	}
	var jobs []ocrJob

	for i, slide := range deck.Slides {
		rec := model.SlideRecord{
			Index: i + 1,
			Title: normalize(slide.Title),
		}

		for _, body := range slide.Bodies {
			rec.BodyTexts = append(rec.BodyTexts, normalize(body))
		}
		for _, table := range slide.Tables {
			rec.TableTexts = append(rec.TableTexts, flattenTable(table))
		}

		rec.ImageTexts = make([]string, len(slide.Images))
		for j, img := range slide.Images {
			jobs = append(jobs, ocrJob{slide: i, image: j, data: img.Data})
		}

		records[i] = rec

		zap.L().Debug("slide extracted",
			zap.Int("slide", rec.Index),
			zap.Int("shapes", len(rec.BodyTexts)),
			zap.Int("tables", len(rec.TableTexts)),
			zap.Int("images", len(slide.Images)),
		)
	}

	if len(jobs) > 0 && e.engine != nil {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)

		for _, job := range jobs {
			g.Go(func() error {
				if len(job.data) == 0 {
					return nil
				}
				text, err := e.engine.ExtractImage(gCtx, job.data)
				if err != nil {
					// Per-image failures are absorbed: the image keeps
					// its empty slot and the rest of the deck proceeds.
					zap.L().Warn("ocr failed for image",
						zap.Int("slide", job.slide+1),
						zap.Int("image", job.image+1),
						zap.Error(err),
					)
					return nil
				}
				// Slots are disjoint per job, so no lock is needed.
				records[job.slide].ImageTexts[job.image] = normalize(text)
				return nil
			})
		}
		_ = g.Wait()
	}

	return records, nil
}

// flattenTable renders a table row-major: cells joined " | " within a
// row, rows joined with newlines.
func flattenTable(table [][]string) string {
	rows := make([]string, 0, len(table))
	for _, row := range table {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, normalize(c))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}

// normalize trims and NFC-normalizes extracted text so byte-identical
// content compares equal regardless of its source encoding quirks.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
