package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/deckcheck/internal/extract"
	"github.com/sells-group/deckcheck/internal/ocr"
	"github.com/sells-group/deckcheck/internal/pipeline"
	"github.com/sells-group/deckcheck/internal/store"
	"github.com/sells-group/deckcheck/pkg/anthropic"
)

// env bundles the wired pipeline and its closeable dependencies.
type env struct {
	Pipeline *pipeline.Pipeline
	Store    store.Store
}

func (e *env) Close() {
	if e.Store != nil {
		e.Store.Close()
	}
}

// initStore opens the configured run-history backend. Returns nil when
// the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "none", "":
		return nil, nil
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline wires OCR, extraction, the model client, and the store
// into a ready Pipeline.
func initPipeline(ctx context.Context, dumpPath string) (*env, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (set DECKCHECK_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	engine, err := ocr.NewEngine(cfg.OCR)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	focusAreas, err := pipeline.LoadFocusAreas(cfg.Analysis.FocusFile)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	client := anthropic.NewClient(cfg.Anthropic.Key)
	analyzer := pipeline.NewAnalyzer(client, cfg.Analysis, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens, focusAreas)
	extractor := extract.New(engine, cfg.OCR.Concurrency)

	return &env{
		Pipeline: pipeline.New(extractor, analyzer, st, dumpPath),
		Store:    st,
	}, nil
}
