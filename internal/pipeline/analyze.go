package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/deckcheck/internal/config"
	"github.com/sells-group/deckcheck/internal/resilience"
	"github.com/sells-group/deckcheck/pkg/anthropic"
)

const analysisSystemPrompt = `You are a meticulous presentation reviewer. You find factual ` +
	`inconsistencies, contradictions, and continuity problems across the slides of a deck. ` +
	`You respond with JSON only, no prose before or after.`

// Analyzer submits structured slide context to the model under rate and
// retry discipline.
type Analyzer struct {
	client     anthropic.Client
	model      string
	maxTokens  int64
	focusAreas []string
	limiter    *rate.Limiter
	retry      resilience.Config
}

// NewAnalyzer builds an Analyzer from configuration. focusAreas must be
// non-empty (use LoadFocusAreas).
func NewAnalyzer(client anthropic.Client, cfg config.AnalysisConfig, model string, maxTokens int64, focusAreas []string) *Analyzer {
	rc := resilience.DefaultConfig()
	if cfg.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMS > 0 {
		rc.InitialBackoff = time.Duration(cfg.InitialBackoffMS) * time.Millisecond
	}
	if cfg.MaxBackoffSecs > 0 {
		rc.MaxBackoff = time.Duration(cfg.MaxBackoffSecs) * time.Second
	}
	if cfg.JitterFraction > 0 {
		rc.JitterFraction = cfg.JitterFraction
	}
	rc.ShouldRetry = retryableAnalysisError
	rc.OnRetry = resilience.RetryLogger("anthropic", "create_message")

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 50
	}

	return &Analyzer{
		client:     client,
		model:      model,
		maxTokens:  maxTokens,
		focusAreas: focusAreas,
		limiter:    rate.NewLimiter(rate.Limit(rpm/60.0), 1),
		retry:      rc,
	}
}

// retryableAnalysisError decides whether a model call is worth retrying.
// Status codes from the SDK take precedence over string heuristics.
func retryableAnalysisError(err error) bool {
	if code, ok := anthropic.StatusCode(err); ok {
		return resilience.IsTransientHTTPStatus(code)
	}
	return resilience.IsTransient(err)
}

// Analyze sends the structured context and returns the raw completion
// text. The retry budget covers transient failures only; exhaustion or a
// non-transient error surfaces as an AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, contextBlock string) (string, error) {
	prompt := a.buildPrompt(contextBlock)

	// Rough heuristic, logged so oversized decks are visible before the
	// API rejects them.
	zap.L().Info("submitting deck for analysis",
		zap.String("model", a.model),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("estimated_tokens", len(prompt)/4),
	)

	attempts := 0
	raw, err := resilience.Run(ctx, a.retry, func(ctx context.Context) (string, error) {
		attempts++
		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     a.model,
			MaxTokens: a.maxTokens,
			System:    analysisSystemPrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			return "", err
		}
		resp.Usage.LogUsage(a.model)
		return resp.Text(), nil
	})
	if err != nil {
		return "", &AnalysisError{Attempts: attempts, Err: err}
	}
	return raw, nil
}

func (a *Analyzer) buildPrompt(contextBlock string) string {
	var b strings.Builder

	b.WriteString("Analyze this presentation for inconsistencies. Check for:\n")
	for i, area := range a.focusAreas {
		fmt.Fprintf(&b, "%d. %s\n", i+1, area)
	}

	b.WriteString(`
Presentation content:

`)
	b.WriteString(contextBlock)

	b.WriteString(`

Return your findings as JSON in this exact format:
{
  "inconsistencies": [
    {
      "type": "numerical|timeline|contradiction|terminology|logic|visual",
      "slides": [1, 2],
      "description": "what is inconsistent",
      "evidence": ["quote from slide 1", "quote from slide 2"],
      "severity": "Critical|High|Medium|Low"
    }
  ]
}

Severity guide: Critical = contradicts a core claim; High = material factual conflict; Medium = noticeable inconsistency; Low = cosmetic or stylistic.
If no issues are found, return {"inconsistencies": []}.`)

	return b.String()
}
