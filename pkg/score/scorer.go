/*
Package score computes per-span accessibility difficulty. Scoring is pure:
identical inputs always produce identical scores, which keeps the whole
rewrite pipeline idempotent below the actionable threshold.
*/
package score

import (
	"math"

	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/saf"
)

/*
Strategy selects how detector confidence and user preference enter the
score. Contextual is the default.
*/
type Strategy string

const (
	StrategySimple       Strategy = "simple"
	StrategyContextual   Strategy = "contextual"
	StrategyWeighted     Strategy = "weighted"
	StrategyConservative Strategy = "conservative"
)

/*
Difficulty is the derived, never-persisted accessibility score for one
detected expression.
*/
type Difficulty struct {
	Expression     detect.Expression `json:"expression"`
	Score          float64           `json:"score"`
	ModalityWeight float64           `json:"modality_weight"`
	Strategy       Strategy          `json:"strategy"`
}

/*
Scorer combines detected spans with a fingerprint. Zero value uses the
contextual strategy.
*/
type Scorer struct {
	strategy Strategy
}

type ScorerOption func(*Scorer)

func NewScorer(options ...ScorerOption) *Scorer {
	scorer := &Scorer{strategy: StrategyContextual}

	for _, option := range options {
		option(scorer)
	}

	return scorer
}

func WithStrategy(strategy Strategy) ScorerOption {
	return func(scorer *Scorer) { scorer.strategy = strategy }
}

/*
Score computes the difficulty of one expression against a fingerprint.
The core signal is intensity x modality sensitivity; strategies modulate it
with detector confidence or style preference. Excluded modalities score as
maximally difficult.
*/
func (scorer *Scorer) Score(expr detect.Expression, fp saf.Fingerprint) Difficulty {
	sensitivity := fp.Sensitivity(expr.Modality)

	if sensitivity.Excluded {
		return Difficulty{
			Expression:     expr,
			Score:          1.0,
			ModalityWeight: 1.0,
			Strategy:       scorer.strategy,
		}
	}

	base := expr.Intensity * sensitivity.Weight

	var raw float64
	switch scorer.strategy {
	case StrategySimple:
		raw = base
	case StrategyWeighted:
		raw = 0.6*base + 0.4*sensitivity.Weight*fp.StyleWeights[saf.StyleFull]
	case StrategyConservative:
		raw = math.Max(0.7*sensitivity.Weight, 0.6*expr.Intensity)
	default: // contextual
		raw = 0.8*base + 0.2*expr.Confidence*sensitivity.Weight
	}

	return Difficulty{
		Expression:     expr,
		Score:          clamp01(raw),
		ModalityWeight: sensitivity.Weight,
		Strategy:       scorer.strategy,
	}
}

/*
ScoreAll scores a batch of expressions, preserving order.
*/
func (scorer *Scorer) ScoreAll(exprs []detect.Expression, fp saf.Fingerprint) []Difficulty {
	out := make([]Difficulty, len(exprs))
	for i, expr := range exprs {
		out[i] = scorer.Score(expr, fp)
	}
	return out
}

/*
Actionable reports whether a difficulty warrants substitution. Threshold is
configuration, never hard-coded by callers.
*/
func Actionable(d Difficulty, threshold float64) bool {
	return d.Score > threshold
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
