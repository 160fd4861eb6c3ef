// Package agents implements the role-specialized generation functions
// of the pipeline: key-information extraction, BRD generation,
// feedback-driven refinement and validation. Each agent is a stateless
// prompt over the completion client; conversation state is owned by the
// caller.
package agents

import (
	"context"
	"fmt"
	"strings"

	"brdgen/internal/domain"
	"brdgen/internal/llm"
)

// ValidationPolicy decides whether a validation report accepts a BRD.
// The default accepts any non-empty report. That is a deliberately weak
// heuristic inherited from the source design; swap the policy rather
// than hardening the default.
type ValidationPolicy func(report string) bool

// DefaultValidationPolicy accepts any non-empty report.
func DefaultValidationPolicy(report string) bool { return len(report) > 0 }

// Agents bundles the generation functions around one completion client
// and one sampling configuration.
type Agents struct {
	client        llm.Client
	sampling      llm.SamplingConfig
	policy        ValidationPolicy
	fewShotBudget int
}

// DefaultFewShotBudget bounds the characters of few-shot examples
// included in a generation prompt, keeping it inside model context
// limits no matter how many example pairs are configured.
const DefaultFewShotBudget = 8000

func New(client llm.Client, sampling llm.SamplingConfig) *Agents {
	return &Agents{
		client:        client,
		sampling:      sampling,
		policy:        DefaultValidationPolicy,
		fewShotBudget: DefaultFewShotBudget,
	}
}

// WithValidationPolicy replaces the acceptance policy.
func (a *Agents) WithValidationPolicy(p ValidationPolicy) *Agents {
	if p != nil {
		a.policy = p
	}
	return a
}

// WithFewShotBudget replaces the few-shot character budget.
func (a *Agents) WithFewShotBudget(chars int) *Agents {
	if chars > 0 {
		a.fewShotBudget = chars
	}
	return a
}

// ExtractKeyInfo asks for the fixed key-information taxonomy given the
// retrieved document context.
func (a *Agents) ExtractKeyInfo(ctx context.Context, documentContext string) (string, error) {
	prompt := fmt.Sprintf(extractPrompt, documentContext)
	return a.client.Complete(ctx, llm.UserMessage(prompt), a.sampling)
}

// SummarizeAssessment condenses a whole cleaned assessment into the
// summary taxonomy used by the interactive path.
func (a *Agents) SummarizeAssessment(ctx context.Context, documentContext string) (string, error) {
	prompt := fmt.Sprintf(summarizePrompt, documentContext)
	return a.client.Complete(ctx, llm.UserMessage(prompt), a.sampling)
}

// GenerateBRD produces a document covering the ten standard sections.
// Few-shot examples are rendered verbatim, in order, ahead of the task
// instructions, bounded by the configured character budget.
func (a *Agents) GenerateBRD(ctx context.Context, assessment string, examples []FewShotExample) (string, error) {
	var sb strings.Builder
	if rendered := renderFewShot(examples, a.fewShotBudget); rendered != "" {
		sb.WriteString(fewShotPrefix)
		sb.WriteString("\n\n")
		sb.WriteString(rendered)
		sb.WriteString("\n\n")
	}
	sb.WriteString(fmt.Sprintf(generatePrompt, strings.Join(StandardSections, "\n"), assessment))
	return a.client.Complete(ctx, llm.UserMessage(sb.String()), a.sampling)
}

// RefineBRD submits the four-turn refinement exchange and returns the
// rewritten BRD. Refining without a prior BRD is a defined error, not
// an exception path.
func (a *Agents) RefineBRD(ctx context.Context, state domain.ConversationState, feedback string) (string, error) {
	if !state.HasBRD() {
		return "", domain.ErrNoCurrentBRD
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: refineSystemPrompt},
		{Role: llm.RoleUser, Content: "Original Assessment: " + state.CurrentAssessment},
		{Role: llm.RoleAssistant, Content: "Here is the current version of the Business Requirements Document (BRD). Please update it based on the feedback. " + state.CurrentBRD},
		{Role: llm.RoleUser, Content: "Feedback to incorporate: " + feedback},
	}
	return a.client.Complete(ctx, messages, a.sampling)
}

// ValidateBRD cross-checks a generated BRD against an excerpt of the
// original document and derives acceptance from the report through the
// configured policy.
func (a *Agents) ValidateBRD(ctx context.Context, brd, originalExcerpt string) (domain.ValidationResult, error) {
	prompt := fmt.Sprintf(validatePrompt, brd, originalExcerpt)
	report, err := a.client.Complete(ctx, llm.UserMessage(prompt), a.sampling)
	if err != nil {
		return domain.ValidationResult{}, err
	}
	return domain.ValidationResult{IsValid: a.policy(report), Report: report}, nil
}
