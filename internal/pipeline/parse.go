package pipeline

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/deckcheck/internal/model"
)

// ParseFindings decodes the model's raw completion into findings. The
// reply is untrusted: fences are stripped, the outermost object is carved
// out, and each candidate finding is salvaged field by field. Only the
// outer payload failing to decode is an error; individual malformed
// findings are dropped with a log line.
func ParseFindings(raw string, slideCount int) ([]model.Finding, error) {
	payload := carvePayload(raw)
	if payload == "" {
		return nil, &ResponseFormatError{Reason: "no JSON object in response"}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, &ResponseFormatError{Reason: "invalid JSON: " + err.Error()}
	}

	items, ok := doc["inconsistencies"].([]any)
	if !ok {
		// A well-formed object without the key means nothing was found.
		return nil, nil
	}

	findings := make([]model.Finding, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			zap.L().Debug("dropping non-object finding", zap.Int("index", i))
			continue
		}
		f, ok := salvageFinding(obj, slideCount)
		if !ok {
			zap.L().Debug("dropping unsalvageable finding", zap.Int("index", i))
			continue
		}
		findings = append(findings, f)
	}

	return findings, nil
}

// carvePayload strips markdown fences and extracts the outermost JSON
// object from free text. Returns "" when no object is present.
func carvePayload(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

// salvageFinding builds a Finding from a loosely-typed object. Type and
// description are mandatory; everything else degrades gracefully.
func salvageFinding(obj map[string]any, slideCount int) (model.Finding, bool) {
	ftype, _ := obj["type"].(string)
	desc, _ := obj["description"].(string)
	if strings.TrimSpace(ftype) == "" || strings.TrimSpace(desc) == "" {
		return model.Finding{}, false
	}

	slides := salvageSlides(obj["slides"], slideCount)
	if len(slides) == 0 {
		return model.Finding{}, false
	}

	var evidence []string
	if list, ok := obj["evidence"].([]any); ok {
		for _, e := range list {
			if s, ok := e.(string); ok && s != "" {
				evidence = append(evidence, s)
			}
		}
	}

	sevRaw, _ := obj["severity"].(string)

	return model.Finding{
		Type:        strings.TrimSpace(ftype),
		Slides:      slides,
		Description: strings.TrimSpace(desc),
		Evidence:    evidence,
		Severity:    model.NormalizeSeverity(sevRaw),
	}, true
}

// salvageSlides extracts valid slide numbers from an untyped list,
// accepting JSON numbers and digit strings, dropping out-of-range
// references, and returning a sorted deduplicated list.
func salvageSlides(v any, slideCount int) []int {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	seen := make(map[int]bool)
	var out []int
	for _, entry := range list {
		n, ok := toSlideNumber(entry)
		if !ok || n < 1 || n > slideCount || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func toSlideNumber(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		// A fractional value names no real slide; truncating it would
		// fabricate a citation.
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
