package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/deckcheck/internal/extract"
	"github.com/sells-group/deckcheck/internal/model"
	"github.com/sells-group/deckcheck/internal/store"
)

const (
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// writeTestDeck builds a minimal deck archive with one text shape per slide.
func writeTestDeck(t *testing.T, slideBodies ...string) string {
	t.Helper()

	pres := `<p:presentation xmlns:p="` + nsP + `" xmlns:r="` + nsR + `"><p:sldIdLst>`
	rels := `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`
	parts := map[string]string{}
	for i, body := range slideBodies {
		rid := fmt.Sprintf("rId%d", i+1)
		pres += fmt.Sprintf(`<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
		rels += fmt.Sprintf(`<Relationship Id="%s" Type="%s/slide" Target="slides/slide%d.xml"/>`, rid, nsR, i+1)
		parts[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = `<p:sld xmlns:p="` + nsP + `" xmlns:a="` + nsA + `"><p:cSld><p:spTree>` +
			`<p:sp><p:txBody><a:p><a:r><a:t>` + body + `</a:t></a:r></a:p></p:txBody></p:sp>` +
			`</p:spTree></p:cSld></p:sld>`
	}
	parts["ppt/presentation.xml"] = pres + `</p:sldIdLst></p:presentation>`
	parts["ppt/_rels/presentation.xml.rels"] = rels + `</Relationships>`

	p := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestPipeline_DetectsCrossSlideConflict(t *testing.T) {
	deck := writeTestDeck(t, "Revenue grew 2x year over year", "Our revenue tripled (3x growth)")

	client := &mockClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"inconsistencies":[{"type":"numerical","slides":[1,2],`+
			`"description":"Growth stated as both 2x and 3x",`+
			`"evidence":["grew 2x","tripled (3x)"],"severity":"Critical"}]}`), nil).Once()

	st := newTestStore(t)
	p := New(extract.New(nil, 1), NewAnalyzer(client, fastAnalysisConfig(1), "m", 100, defaultFocusAreas), st, "")

	report, err := p.Run(context.Background(), deck)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Statistics.TotalSlides)
	assert.Equal(t, 1, report.Statistics.IssuesFound)
	require.Len(t, report.Inconsistencies, 1)
	assert.Equal(t, model.SeverityCritical, report.Inconsistencies[0].Severity)
	assert.Equal(t, []int{1, 2}, report.Inconsistencies[0].Slides)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Report)
	assert.Equal(t, 1, runs[0].Report.Statistics.IssuesFound)
}

func TestPipeline_EmptyDeckSkipsAnalysis(t *testing.T) {
	deck := writeTestDeck(t)

	client := &mockClient{}
	p := New(extract.New(nil, 1), NewAnalyzer(client, fastAnalysisConfig(1), "m", 100, defaultFocusAreas), nil, "")

	report, err := p.Run(context.Background(), deck)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Statistics.TotalSlides)
	assert.Empty(t, report.Inconsistencies)
	client.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestPipeline_ExtractionFailureRecordsRun(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.pptx")
	require.NoError(t, os.WriteFile(bad, []byte("not a deck"), 0o644))

	st := newTestStore(t)
	client := &mockClient{}
	p := New(extract.New(nil, 1), NewAnalyzer(client, fastAnalysisConfig(1), "m", 100, defaultFocusAreas), st, "")

	_, err := p.Run(context.Background(), bad)
	var xerr *extract.ExtractionError
	require.True(t, errors.As(err, &xerr))

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "extract")
}

func TestPipeline_MalformedResponse(t *testing.T) {
	deck := writeTestDeck(t, "Slide content")

	client := &mockClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse("I cannot produce JSON today."), nil).Once()

	p := New(extract.New(nil, 1), NewAnalyzer(client, fastAnalysisConfig(1), "m", 100, defaultFocusAreas), nil, "")

	_, err := p.Run(context.Background(), deck)
	var ferr *ResponseFormatError
	require.True(t, errors.As(err, &ferr))
}

func TestPipeline_DumpRawResponse(t *testing.T) {
	deck := writeTestDeck(t, "Slide content")
	dump := filepath.Join(t.TempDir(), "raw.json")

	reply := "```json\n{\"inconsistencies\": []}\n```"
	client := &mockClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(reply), nil).Once()

	p := New(extract.New(nil, 1), NewAnalyzer(client, fastAnalysisConfig(1), "m", 100, defaultFocusAreas), nil, dump)

	_, err := p.Run(context.Background(), deck)
	require.NoError(t, err)

	data, err := os.ReadFile(dump)
	require.NoError(t, err)
	assert.Equal(t, reply, string(data))
}

func TestPipeline_NoIssuesFound(t *testing.T) {
	deck := writeTestDeck(t, "Consistent slide one", "Consistent slide two")

	client := &mockClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"inconsistencies": []}`), nil).Once()

	p := New(extract.New(nil, 1), NewAnalyzer(client, fastAnalysisConfig(1), "m", 100, defaultFocusAreas), nil, "")

	report, err := p.Run(context.Background(), deck)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Statistics.IssuesFound)
	assert.NotNil(t, report.Inconsistencies)
}
