package question

import (
	"fmt"

	"quiz-attempt-service/internal/domain"
)

// singleChoice has exactly one correct option and is scored all-or-nothing.
type singleChoice struct {
	maxScore float64
	correct  string
	flags    map[string]bool
}

func newSingleChoice(q domain.Question) (Grader, error) {
	if len(q.Options) == 0 {
		return nil, fmt.Errorf("%w: single-choice question needs options", domain.ErrConstructionInvariant)
	}
	g := &singleChoice{maxScore: q.MaxScore, flags: make(map[string]bool, len(q.Options))}
	correctCount := 0
	for _, opt := range q.Options {
		g.flags[opt.Text] = opt.Correct
		if opt.Correct {
			correctCount++
			g.correct = opt.Text
		}
	}
	if correctCount != 1 {
		return nil, fmt.Errorf("%w: single-choice question needs exactly one correct option, got %d", domain.ErrConstructionInvariant, correctCount)
	}
	return g, nil
}

func (g *singleChoice) Kind() domain.QuestionKind { return domain.KindSingleChoice }
func (g *singleChoice) MaxScore() float64         { return g.maxScore }

func (g *singleChoice) CheckAnswers(submitted []string) ([]bool, error) {
	if len(submitted) != 1 {
		return nil, fmt.Errorf("%w: single-choice expects exactly one value, got %d", domain.ErrInvalidSubmission, len(submitted))
	}
	correct, known := g.flags[submitted[0]]
	if !known {
		return nil, fmt.Errorf("%w: %q", domain.ErrOptionNotFound, submitted[0])
	}
	return []bool{correct}, nil
}

func (g *singleChoice) CorrectAnswers() []string {
	return []string{g.correct}
}

func (g *singleChoice) CalculateScore(submitted []string) (float64, error) {
	flags, err := g.CheckAnswers(submitted)
	if err != nil {
		return 0, err
	}
	if flags[0] {
		return g.maxScore, nil
	}
	return 0, nil
}

// multiChoice scores the fraction of distinct correct options found, but any
// selected incorrect option zeroes the question.
type multiChoice struct {
	maxScore     float64
	flags        map[string]bool
	correctOpts  []string
	correctCount int
}

func newMultiChoice(q domain.Question) (Grader, error) {
	g := &multiChoice{maxScore: q.MaxScore, flags: make(map[string]bool, len(q.Options))}
	for _, opt := range q.Options {
		g.flags[opt.Text] = opt.Correct
		if opt.Correct {
			g.correctOpts = append(g.correctOpts, opt.Text)
			g.correctCount++
		}
	}
	if g.correctCount == 0 || g.correctCount == len(q.Options) {
		return nil, fmt.Errorf("%w: multi-choice question needs at least one correct and one incorrect option", domain.ErrConstructionInvariant)
	}
	return g, nil
}

func (g *multiChoice) Kind() domain.QuestionKind { return domain.KindMultiChoice }
func (g *multiChoice) MaxScore() float64         { return g.maxScore }

func (g *multiChoice) CheckAnswers(submitted []string) ([]bool, error) {
	if len(submitted) > len(g.flags) {
		return nil, fmt.Errorf("%w: multi-choice expects at most %d values, got %d", domain.ErrInvalidSubmission, len(g.flags), len(submitted))
	}
	flags := make([]bool, len(submitted))
	for i, value := range submitted {
		correct, known := g.flags[value]
		if !known {
			return nil, fmt.Errorf("%w: %q", domain.ErrOptionNotFound, value)
		}
		flags[i] = correct
	}
	return flags, nil
}

func (g *multiChoice) CorrectAnswers() []string {
	out := make([]string, len(g.correctOpts))
	copy(out, g.correctOpts)
	return out
}

func (g *multiChoice) CalculateScore(submitted []string) (float64, error) {
	flags, err := g.CheckAnswers(submitted)
	if err != nil {
		return 0, err
	}
	// Duplicates collapse so a padded submission cannot exceed maxScore.
	hits := make(map[string]struct{}, len(submitted))
	for i, value := range submitted {
		if !flags[i] {
			return 0, nil
		}
		hits[value] = struct{}{}
	}
	return float64(len(hits)) / float64(g.correctCount) * g.maxScore, nil
}
