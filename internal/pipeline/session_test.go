package pipeline

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"brdgen/internal/agents"
	"brdgen/internal/chunker"
	"brdgen/internal/domain"
	"brdgen/internal/llm"
)

// chatClient scripts the interactive exchange: summarize, generate,
// then refine.
type chatClient struct {
	refineCalls [][]llm.Message
	failRefine  bool
}

func (c *chatClient) Complete(_ context.Context, messages []llm.Message, _ llm.SamplingConfig) (string, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "specialist in reading SAP assessment reports"):
		return "summary of the assessment", nil
	case strings.Contains(prompt, "expert SAP Business Requirements Document"):
		return "generated brd v1", nil
	case strings.Contains(prompt, "Feedback to incorporate:"):
		if c.failRefine {
			return "", errors.New("refinement backend unavailable")
		}
		c.refineCalls = append(c.refineCalls, messages)
		return "refined brd v2", nil
	}
	return "", errors.New("unexpected prompt")
}

func writeAssessmentDocx(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "assessment.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	body := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>The assessment covers finance migration objectives and risks.</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func newTestSession(t *testing.T, client llm.Client, outputDir string) *Session {
	t.Helper()
	extractChunker, err := chunker.NewCharacterChunker(500, 50)
	require.NoError(t, err)
	ag := agents.New(client, llm.SamplingConfig{Model: "test-model"})
	return NewSession(ag, nil, extractChunker, outputDir, nil)
}

func TestSession_GenerateThenRefine(t *testing.T) {
	dir := t.TempDir()
	client := &chatClient{}
	s := newTestSession(t, client, dir)
	ctx := context.Background()

	res := s.Generate(ctx, writeAssessmentDocx(t, dir))
	require.NoError(t, res.Err)
	require.Equal(t, "generated brd v1", res.BRD)
	require.Equal(t, "summary of the assessment", res.Summary)
	require.Equal(t, GeneratedBRDFilename, filepath.Base(res.OutputPath))

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "generated brd v1", string(data))

	res = s.Refine(ctx, "expand the risk analysis")
	require.NoError(t, res.Err)
	require.Equal(t, "refined brd v2", res.BRD)
	require.Equal(t, RefinedBRDFilename, filepath.Base(res.OutputPath))

	// the refinement exchange carries the summarized assessment and
	// the current BRD, not the raw document
	require.Len(t, client.refineCalls, 1)
	msgs := client.refineCalls[0]
	require.Len(t, msgs, 4)
	require.Contains(t, msgs[1].Content, "summary of the assessment")
	require.Contains(t, msgs[2].Content, "generated brd v1")

	// state now tracks the refined revision
	require.Equal(t, "refined brd v2", s.State().CurrentBRD)
}

func TestSession_RefineWithoutGenerate(t *testing.T) {
	s := newTestSession(t, &chatClient{}, t.TempDir())

	res := s.Refine(context.Background(), "feedback")
	require.ErrorIs(t, res.Err, domain.ErrNoCurrentBRD)
	require.Contains(t, res.ErrorText(), "Error:")
	require.False(t, s.State().HasBRD())
}

func TestSession_GenerateUnsupportedFile(t *testing.T) {
	s := newTestSession(t, &chatClient{}, t.TempDir())

	res := s.Generate(context.Background(), "assessment.txt")
	require.ErrorIs(t, res.Err, domain.ErrUnsupportedFormat)
	require.Contains(t, res.ErrorText(), "unsupported")
	require.False(t, s.State().HasBRD())
}

func TestSession_RefineFailureKeepsState(t *testing.T) {
	dir := t.TempDir()
	client := &chatClient{failRefine: true}
	s := newTestSession(t, client, dir)
	ctx := context.Background()

	res := s.Generate(ctx, writeAssessmentDocx(t, dir))
	require.NoError(t, res.Err)

	res = s.Refine(ctx, "feedback")
	require.Error(t, res.Err)
	// the failed turn does not clobber the current revision
	require.Equal(t, "generated brd v1", s.State().CurrentBRD)
}
