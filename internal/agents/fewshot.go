package agents

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"brdgen/internal/extract"
)

// FewShotExample pairs a sample assessment with its corresponding
// sample BRD. Examples are inserted verbatim into generation prompts.
type FewShotExample struct {
	Assessment string
	BRD        string
}

// ExamplePair names the source files of one few-shot example.
type ExamplePair struct {
	AssessmentPath string `yaml:"assessment"`
	BRDPath        string `yaml:"brd"`
}

// LoadFewShotExamples extracts each configured pair. A pair whose
// extraction fails is reported and skipped; the remaining pairs still
// load. Order is preserved.
func LoadFewShotExamples(pairs []ExamplePair, logger *zap.Logger) []FewShotExample {
	examples := make([]FewShotExample, 0, len(pairs))
	for _, pair := range pairs {
		assessment, err := extract.Text(pair.AssessmentPath)
		if err != nil {
			logger.Warn("skipping few-shot example pair",
				zap.String("assessment", pair.AssessmentPath),
				zap.Error(err))
			continue
		}
		brd, err := extract.Text(pair.BRDPath)
		if err != nil {
			logger.Warn("skipping few-shot example pair",
				zap.String("brd", pair.BRDPath),
				zap.Error(err))
			continue
		}
		examples = append(examples, FewShotExample{
			Assessment: extract.Clean(assessment),
			BRD:        extract.Clean(brd),
		})
	}
	return examples
}

// renderFewShot renders examples in order until the character budget is
// exhausted. The first example is always included whole so a single
// oversized pair cannot silence the few-shot guidance entirely.
func renderFewShot(examples []FewShotExample, budget int) string {
	var parts []string
	used := 0
	for i, ex := range examples {
		part := fmt.Sprintf(fewShotExampleTemplate, ex.Assessment, ex.BRD)
		if i > 0 && used+len(part) > budget {
			break
		}
		parts = append(parts, part)
		used += len(part)
		if used > budget {
			break
		}
	}
	return strings.Join(parts, "\n\n")
}
