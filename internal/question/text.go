package question

import (
	"fmt"

	"quiz-attempt-service/internal/domain"
)

// fillBlank holds one acceptable-answer set per ordered blank. Submitted
// values are whitespace-normalized before matching; matching is
// case-sensitive.
type fillBlank struct {
	maxScore float64
	blanks   [][]string
}

func newFillBlank(q domain.Question) (Grader, error) {
	if len(q.Blanks) == 0 {
		return nil, fmt.Errorf("%w: fill-blank question needs at least one blank", domain.ErrConstructionInvariant)
	}
	blanks := make([][]string, len(q.Blanks))
	for i, accepted := range q.Blanks {
		if len(accepted) == 0 {
			return nil, fmt.Errorf("%w: blank %d has no acceptable answers", domain.ErrConstructionInvariant, i)
		}
		blanks[i] = append([]string(nil), accepted...)
	}
	return &fillBlank{maxScore: q.MaxScore, blanks: blanks}, nil
}

func (g *fillBlank) Kind() domain.QuestionKind { return domain.KindFillBlank }
func (g *fillBlank) MaxScore() float64         { return g.maxScore }

func (g *fillBlank) CheckAnswers(submitted []string) ([]bool, error) {
	if len(submitted) != len(g.blanks) {
		return nil, fmt.Errorf("%w: fill-blank expects %d values, got %d", domain.ErrInvalidSubmission, len(g.blanks), len(submitted))
	}
	flags := make([]bool, len(submitted))
	for i, value := range submitted {
		flags[i] = contains(g.blanks[i], normalize(value))
	}
	return flags, nil
}

// CorrectAnswers returns the first acceptable answer of each blank, in blank
// order.
func (g *fillBlank) CorrectAnswers() []string {
	out := make([]string, len(g.blanks))
	for i, accepted := range g.blanks {
		out[i] = accepted[0]
	}
	return out
}

// CalculateScore returns the fraction of correct blanks. Unlike the other
// variants the result is not scaled by maxScore; this mirrors the historical
// behavior and the completion total depends on it staying that way.
func (g *fillBlank) CalculateScore(submitted []string) (float64, error) {
	flags, err := g.CheckAnswers(submitted)
	if err != nil {
		return 0, err
	}
	hit := 0
	for _, correct := range flags {
		if correct {
			hit++
		}
	}
	return float64(hit) / float64(len(g.blanks)), nil
}

// pictureResponse matches free-text values against a single acceptable set,
// without ordering or a cardinality cap.
type pictureResponse struct {
	maxScore float64
	accepted []string
}

func newPictureResponse(q domain.Question) (Grader, error) {
	if len(q.Accepted) == 0 {
		return nil, fmt.Errorf("%w: picture-response question needs at least one acceptable answer", domain.ErrConstructionInvariant)
	}
	return &pictureResponse{
		maxScore: q.MaxScore,
		accepted: append([]string(nil), q.Accepted...),
	}, nil
}

func (g *pictureResponse) Kind() domain.QuestionKind { return domain.KindPictureResponse }
func (g *pictureResponse) MaxScore() float64         { return g.maxScore }

func (g *pictureResponse) CheckAnswers(submitted []string) ([]bool, error) {
	flags := make([]bool, len(submitted))
	for i, value := range submitted {
		flags[i] = contains(g.accepted, normalize(value))
	}
	return flags, nil
}

func (g *pictureResponse) CorrectAnswers() []string {
	return append([]string(nil), g.accepted...)
}

// CalculateScore awards maxScore only when every submitted value appears in
// the acceptable set verbatim. The raw comparison here, against the
// normalized one in CheckAnswers, mirrors the historical behavior.
func (g *pictureResponse) CalculateScore(submitted []string) (float64, error) {
	for _, value := range submitted {
		if !contains(g.accepted, value) {
			return 0, nil
		}
	}
	return g.maxScore, nil
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
