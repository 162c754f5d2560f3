package quiz

import "github.com/trezcool/elimu/core"

// Result is the outcome of grading a set of answers.
type Result struct {
	Score    int
	MaxScore int
	Percent  int
	Passed   bool
	Outcome  string
}

func checkAnswers(q Quiz, answers []int) error {
	if len(answers) != len(q.Questions) {
		return core.NewValidationError(errAnswerCount, core.FieldError{Field: "answers", Error: errAnswerCount.Error()})
	}
	for i, ans := range answers {
		if ans < 0 || ans >= len(q.Questions[i].Options) {
			return core.NewValidationError(errAnswerRange, core.FieldError{Field: "answers", Error: errAnswerRange.Error()})
		}
	}
	return nil
}

// Grade scores answers (one option index per question) against q.
func Grade(q Quiz, answers []int) (Result, error) {
	if err := checkAnswers(q, answers); err != nil {
		return Result{}, err
	}
	if q.Kind == KindPersonality {
		return Result{Outcome: dominantTrait(q, answers), Passed: true}, nil
	}

	res := Result{MaxScore: q.MaxScore()}
	for i, ans := range answers {
		qst := q.Questions[i]
		if qst.Options[ans].Correct {
			res.Score += qst.points()
		}
	}
	if res.MaxScore > 0 {
		res.Percent = res.Score * 100 / res.MaxScore
	}
	res.Passed = res.Percent >= q.PassingScore
	return res, nil
}

// dominantTrait returns the most chosen trait; ties go to the trait chosen first.
func dominantTrait(q Quiz, answers []int) string {
	counts := make(map[string]int)
	var order []string
	for i, ans := range answers {
		trait := q.Questions[i].Options[ans].Trait
		if trait == "" {
			continue
		}
		if _, seen := counts[trait]; !seen {
			order = append(order, trait)
		}
		counts[trait]++
	}

	var best string
	for _, trait := range order {
		if counts[trait] > counts[best] {
			best = trait
		}
	}
	return best
}
