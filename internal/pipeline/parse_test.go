package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deckcheck/internal/model"
)

func TestParseFindings_CleanJSON(t *testing.T) {
	raw := `{"inconsistencies":[{"type":"numerical","slides":[2,7],` +
		`"description":"Growth stated as both 2x and 3x",` +
		`"evidence":["2x growth","3x growth"],"severity":"Critical"}]}`

	findings, err := ParseFindings(raw, 10)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "numerical", f.Type)
	assert.Equal(t, []int{2, 7}, f.Slides)
	assert.Equal(t, model.SeverityCritical, f.Severity)
	assert.Equal(t, []string{"2x growth", "3x growth"}, f.Evidence)
}

func TestParseFindings_FencedJSON(t *testing.T) {
	raw := "Here are the findings:\n```json\n" +
		`{"inconsistencies":[{"type":"timeline","slides":[1],"description":"Launch date conflict","severity":"High"}]}` +
		"\n```\nLet me know if you need more."

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityHigh, findings[0].Severity)
}

func TestParseFindings_ProseAroundBareObject(t *testing.T) {
	raw := `Sure! {"inconsistencies":[{"type":"logic","slides":[3],"description":"Conclusion precedes data"}]} Done.`

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	// Missing severity defaults to Medium.
	assert.Equal(t, model.SeverityMedium, findings[0].Severity)
}

func TestParseFindings_UnknownSeverityCoerced(t *testing.T) {
	raw := `{"inconsistencies":[{"type":"terminology","slides":[1],"description":"Naming drift","severity":"Catastrophic"}]}`

	findings, err := ParseFindings(raw, 3)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, model.SeverityMedium, findings[0].Severity)
}

func TestParseFindings_OutOfRangeSlidesDropped(t *testing.T) {
	raw := `{"inconsistencies":[{"type":"numerical","slides":[2,99,0],"description":"Mismatch","severity":"Low"}]}`

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, []int{2}, findings[0].Slides)
}

func TestParseFindings_AllSlidesInvalidDiscardsFinding(t *testing.T) {
	raw := `{"inconsistencies":[` +
		`{"type":"numerical","slides":[99],"description":"Phantom","severity":"High"},` +
		`{"type":"timeline","slides":[1],"description":"Real","severity":"Low"}]}`

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "timeline", findings[0].Type)
}

func TestParseFindings_MissingTypeOrDescriptionDiscarded(t *testing.T) {
	raw := `{"inconsistencies":[` +
		`{"slides":[1],"description":"no type"},` +
		`{"type":"logic","slides":[1]},` +
		`{"type":"logic","slides":[1],"description":"kept"}]}`

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "kept", findings[0].Description)
}

func TestParseFindings_FractionalSlideNumbersRejected(t *testing.T) {
	raw := `{"inconsistencies":[{"type":"numerical","slides":[2.7, 3],"description":"Mixed refs","severity":"Low"}]}`

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	// 2.7 names no real slide and must not become slide 2.
	assert.Equal(t, []int{3}, findings[0].Slides)
}

func TestParseFindings_SlideNumbersAsStrings(t *testing.T) {
	raw := `{"inconsistencies":[{"type":"numerical","slides":["3","1","3"],"description":"Dup and string forms","severity":"Low"}]}`

	findings, err := ParseFindings(raw, 5)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, []int{1, 3}, findings[0].Slides)
}

func TestParseFindings_MissingKeyMeansNoFindings(t *testing.T) {
	findings, err := ParseFindings(`{"notes":"all clear"}`, 5)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestParseFindings_EmptyList(t *testing.T) {
	findings, err := ParseFindings(`{"inconsistencies": []}`, 5)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestParseFindings_NoJSONObject(t *testing.T) {
	_, err := ParseFindings("I could not analyze this deck.", 5)
	var ferr *ResponseFormatError
	require.True(t, errors.As(err, &ferr))
}

func TestParseFindings_InvalidJSON(t *testing.T) {
	_, err := ParseFindings(`{"inconsistencies": [truncated`, 5)
	var ferr *ResponseFormatError
	require.True(t, errors.As(err, &ferr))
}

func TestCarvePayload(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose wrapped", `result: {"a":1} end`, `{"a":1}`},
		{"no object", "nothing here", ""},
		{"only close brace", "}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, carvePayload(tt.input))
		})
	}
}
