package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"brdgen/internal/agents"
	"brdgen/internal/domain"
	"brdgen/internal/extract"
)

// Fixed output filenames of the interactive flow. Each generation or
// refinement overwrites the previous one.
const (
	GeneratedBRDFilename = "generated_brd.txt"
	RefinedBRDFilename   = "refined_brd.txt"
)

// Session holds the conversational refinement state: the summarized
// assessment and the current BRD revision. One Session serves one
// conversation; calls are serialized.
type Session struct {
	mu       sync.Mutex
	agents   *agents.Agents
	examples []agents.FewShotExample
	chunker  domain.Chunker
	outDir   string
	logger   *zap.Logger
	state    domain.ConversationState
}

func NewSession(ag *agents.Agents, examples []agents.FewShotExample, chunker domain.Chunker, outputDir string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		agents:   ag,
		examples: examples,
		chunker:  chunker,
		outDir:   outputDir,
		logger:   logger,
	}
}

// Result is the outcome of one interactive turn. On failure Err is set
// and the surface displays ErrorText in place of the BRD.
type Result struct {
	BRD        string
	Summary    string
	OutputPath string
	Err        error
}

// ErrorText renders the failure verbatim for display.
func (r Result) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", r.Err)
}

// Generate runs the interactive generation flow for one assessment
// document and resets the conversation state to its result.
func (s *Session) Generate(ctx context.Context, assessmentPath string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := extract.Text(assessmentPath)
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("path", assessmentPath), zap.Error(err))
		return Result{Err: err}
	}
	cleaned := extract.Clean(raw)

	chunks, err := s.chunker.Split(domain.Document{ID: hashString(assessmentPath), RawText: cleaned})
	if err != nil {
		return Result{Err: err}
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}

	summary, err := s.agents.SummarizeAssessment(ctx, strings.Join(parts, "\n"))
	if err != nil {
		return Result{Err: err}
	}

	brd, err := s.agents.GenerateBRD(ctx, summary, s.examples)
	if err != nil {
		return Result{Err: err}
	}

	s.state = domain.ConversationState{CurrentAssessment: summary, CurrentBRD: brd}

	path, err := writeBRD(s.outDir, GeneratedBRDFilename, brd)
	if err != nil {
		return Result{BRD: brd, Summary: summary, Err: err}
	}
	s.logger.Info("generated BRD", zap.String("output", path))
	return Result{BRD: brd, Summary: summary, OutputPath: path}
}

// Refine applies one round of feedback to the current BRD. Without a
// prior Generate it fails with ErrNoCurrentBRD and leaves the state
// untouched.
func (s *Session) Refine(ctx context.Context, feedback string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	brd, err := s.agents.RefineBRD(ctx, s.state, feedback)
	if err != nil {
		return Result{Err: err}
	}
	s.state.CurrentBRD = brd

	path, err := writeBRD(s.outDir, RefinedBRDFilename, brd)
	if err != nil {
		return Result{BRD: brd, Err: err}
	}
	s.logger.Info("refined BRD", zap.String("output", path))
	return Result{BRD: brd, OutputPath: path}
}

// State returns a copy of the current conversation state.
func (s *Session) State() domain.ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
