package fundamental

import "github.com/ityard/stocklens/internal/models"

// Grade classifies a ratio reading against fixed thresholds.
type Grade string

const (
	GradeGood    Grade = "good"
	GradeCaution Grade = "caution"
	GradeRisk    Grade = "risk"
	GradeUnknown Grade = "unknown"
)

// HealthAssessment grades the latest period's ratios and rolls them up to an
// overall grade.
type HealthAssessment struct {
	Symbol  string           `json:"symbol"`
	Period  string           `json:"period"`
	Grades  map[string]Grade `json:"grades"`
	Overall Grade            `json:"overall"`
}

// AssessHealth grades a ratio set. Ratios that were not computable grade
// unknown and are excluded from the overall roll-up. The roll-up: two or
// more risk grades is risk, one risk or two cautions is caution, otherwise
// good.
func AssessHealth(set models.RatioSet) HealthAssessment {
	assessment := HealthAssessment{
		Symbol: set.Symbol,
		Period: set.Period,
		Grades: make(map[string]Grade),
	}

	grade := func(name string, classify func(float64) Grade) {
		v, ok := set.Get(name)
		if !ok {
			assessment.Grades[name] = GradeUnknown
			return
		}
		assessment.Grades[name] = classify(v)
	}

	grade(models.RatioDebt, func(v float64) Grade {
		switch {
		case v < 0.5:
			return GradeGood
		case v < 0.7:
			return GradeCaution
		default:
			return GradeRisk
		}
	})
	grade(models.RatioOperatingMargin, higherIsBetter(0.10, 0.05))
	grade(models.RatioROE, higherIsBetter(0.10, 0.05))
	if _, ok := set.Get(models.RatioCurrent); ok {
		grade(models.RatioCurrent, higherIsBetter(1.5, 1.0))
	}

	var risk, caution int
	for _, g := range assessment.Grades {
		switch g {
		case GradeRisk:
			risk++
		case GradeCaution:
			caution++
		}
	}
	switch {
	case risk >= 2:
		assessment.Overall = GradeRisk
	case risk == 1 || caution >= 2:
		assessment.Overall = GradeCaution
	default:
		assessment.Overall = GradeGood
	}

	return assessment
}

func higherIsBetter(good, caution float64) func(float64) Grade {
	return func(v float64) Grade {
		switch {
		case v > good:
			return GradeGood
		case v > caution:
			return GradeCaution
		default:
			return GradeRisk
		}
	}
}
