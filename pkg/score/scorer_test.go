package score

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

func span(modality taxonomy.Modality, intensity, confidence float64) detect.Expression {
	return detect.Expression{
		Surface:    "test",
		Modality:   modality,
		Intensity:  intensity,
		Confidence: confidence,
	}
}

func TestExcludedModalityScoresMaximal(t *testing.T) {
	Convey("Given a fingerprint excluding auditory", t, func() {
		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Auditory] = saf.Sensitivity{Weight: 0.1, Excluded: true}

		scorer := NewScorer()
		difficulty := scorer.Score(span(taxonomy.Auditory, 0.1, 0.1), fp)

		Convey("Then the score is maximal regardless of intensity", func() {
			So(difficulty.Score, ShouldEqual, 1.0)
			So(difficulty.ModalityWeight, ShouldEqual, 1.0)
		})
	})
}

func TestSimpleStrategy(t *testing.T) {
	Convey("Given the simple strategy", t, func() {
		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 0.5}

		scorer := NewScorer(WithStrategy(StrategySimple))
		difficulty := scorer.Score(span(taxonomy.Visual, 0.8, 0.9), fp)

		Convey("Then the score is intensity times sensitivity", func() {
			So(difficulty.Score, ShouldAlmostEqual, 0.4, 0.0001)
		})
	})
}

func TestContextualStrategy(t *testing.T) {
	Convey("Given the default contextual strategy", t, func() {
		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 0.5}

		scorer := NewScorer()

		Convey("Then confidence raises the score above the pure base", func() {
			confident := scorer.Score(span(taxonomy.Visual, 0.8, 1.0), fp)
			unsure := scorer.Score(span(taxonomy.Visual, 0.8, 0.0), fp)
			So(confident.Score, ShouldBeGreaterThan, unsure.Score)
		})
	})
}

func TestConservativeStrategy(t *testing.T) {
	Convey("Given the conservative strategy", t, func() {
		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 0.9}

		scorer := NewScorer(WithStrategy(StrategyConservative))
		difficulty := scorer.Score(span(taxonomy.Visual, 0.2, 0.5), fp)

		Convey("Then high sensitivity dominates low intensity", func() {
			So(difficulty.Score, ShouldAlmostEqual, 0.63, 0.0001)
		})
	})
}

func TestZeroSensitivityNeverActionable(t *testing.T) {
	Convey("Given a neutral fingerprint", t, func() {
		fp := saf.NewFingerprint()
		scorer := NewScorer()

		Convey("Then even intense spans stay below any positive threshold", func() {
			difficulty := scorer.Score(span(taxonomy.Visual, 1.0, 1.0), fp)
			So(Actionable(difficulty, 0.01), ShouldBeFalse)
		})
	})
}

func TestScoreAllPreservesOrder(t *testing.T) {
	Convey("Given a batch of spans", t, func() {
		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 0.5}
		fp.Sensitivities[taxonomy.Tactile] = saf.Sensitivity{Weight: 0.9}

		scorer := NewScorer()
		spans := []detect.Expression{
			span(taxonomy.Visual, 0.8, 0.5),
			span(taxonomy.Tactile, 0.5, 0.5),
		}

		difficulties := scorer.ScoreAll(spans, fp)

		Convey("Then results align with input order", func() {
			So(len(difficulties), ShouldEqual, 2)
			So(difficulties[0].Expression.Modality, ShouldEqual, taxonomy.Visual)
			So(difficulties[1].Expression.Modality, ShouldEqual, taxonomy.Tactile)
		})
	})
}

func TestScoringDeterminism(t *testing.T) {
	Convey("Given identical inputs", t, func() {
		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Auditory] = saf.Sensitivity{Weight: 0.6}

		scorer := NewScorer()
		expr := span(taxonomy.Auditory, 0.8, 0.7)

		Convey("Then scores are identical across calls", func() {
			So(scorer.Score(expr, fp), ShouldResemble, scorer.Score(expr, fp))
		})
	})
}
