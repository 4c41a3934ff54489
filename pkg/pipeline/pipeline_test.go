package pipeline

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/errors"
	"github.com/theapemachine/senseable-go/pkg/memory"
	"github.com/theapemachine/senseable-go/pkg/provider"
	"github.com/theapemachine/senseable-go/pkg/reason"
	"github.com/theapemachine/senseable-go/pkg/retrieve"
	"github.com/theapemachine/senseable-go/pkg/rewrite"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/score"
	"github.com/theapemachine/senseable-go/pkg/stg"
	"github.com/theapemachine/senseable-go/pkg/stores/qdrant"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

type fixedIndex struct {
	docs []qdrant.Document
}

func (index *fixedIndex) Search(
	ctx context.Context, queryVec []float32, cultures []string, limit int,
) ([]qdrant.Document, error) {
	return index.docs, nil
}

func newTestPipeline(prvdr provider.Interface, docs []qdrant.Document) (*Pipeline, saf.Store, memory.Store) {
	fingerprints := saf.NewInMemoryStore()
	history := memory.NewInMemoryStore()

	pl := New(
		detect.NewDetector(),
		score.NewScorer(),
		retrieve.NewRetriever(prvdr, &fixedIndex{docs: docs}),
		reason.NewEngine(stg.DefaultGraph()),
		rewrite.NewRewriter(prvdr),
		fingerprints,
		history,
	)

	return pl, fingerprints, history
}

func TestRewriteScenario(t *testing.T) {
	Convey("Given a user who cannot process visual metaphors", t, func() {
		ctx := context.Background()
		prvdr := provider.NewMockProvider()

		pl, fingerprints, _ := newTestPipeline(prvdr, []qdrant.Document{
			{Text: "warm", Culture: "culture:mx", Concept: "tactile-comfort", Score: 0.9},
		})

		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 1, Excluded: true}
		fp.Sensitivities[taxonomy.Auditory] = saf.Sensitivity{Weight: 0.3}
		fp.CultureTags = []string{"culture:mx"}
		So(fingerprints.Save(ctx, "alice", fp), ShouldBeNil)

		result, err := pl.Rewrite(ctx, "Her voice was a glistening bell", "alice", Options{
			Style: saf.StyleMinimal,
		})

		Convey("Then the visual metaphor is replaced with a tactile candidate", func() {
			So(err, ShouldBeNil)
			So(result.Output, ShouldEqual, "Her voice was a warm bell")
			So(len(result.Decisions), ShouldEqual, 1)
			So(result.Decisions[0].Expr.Surface, ShouldEqual, "glistening")
			So(result.Decisions[0].Replacement, ShouldEqual, "warm")
		})

		Convey("Then every decision carries a justification", func() {
			for _, decision := range result.Decisions {
				So(decision.Justification, ShouldNotBeEmpty)
			}
		})

		Convey("Then the mildly sensitive auditory spans are preserved", func() {
			So(result.Output, ShouldContainSubstring, "voice")
			So(result.Output, ShouldContainSubstring, "bell")
		})
	})
}

func TestRewriteNoSensoryLanguage(t *testing.T) {
	Convey("Given text without sensory language", t, func() {
		pl, _, _ := newTestPipeline(provider.NewMockProvider(), nil)

		text := "The committee approved the quarterly budget."
		result, err := pl.Rewrite(context.Background(), text, "bob", Options{})

		Convey("Then the input comes back unchanged", func() {
			So(err, ShouldBeNil)
			So(result.Output, ShouldEqual, text)
			So(result.Decisions, ShouldBeEmpty)
			So(result.Unresolved, ShouldBeEmpty)
		})
	})
}

func TestRewriteBelowThresholdIsIdempotent(t *testing.T) {
	Convey("Given a user barely sensitive to anything", t, func() {
		ctx := context.Background()
		pl, fingerprints, _ := newTestPipeline(provider.NewMockProvider(), nil)

		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 0.1}
		So(fingerprints.Save(ctx, "carol", fp), ShouldBeNil)

		text := "A glow spread across the horizon"

		first, err1 := pl.Rewrite(ctx, text, "carol", Options{})
		second, err2 := pl.Rewrite(ctx, first.Output, "carol", Options{})

		Convey("Then no substitution is attempted and rewrite is idempotent", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(first.Output, ShouldEqual, text)
			So(second.Output, ShouldEqual, text)
			So(first.Decisions, ShouldBeEmpty)
		})
	})
}

func TestRewriteCandidateStarvation(t *testing.T) {
	Convey("Given no corpus and no graph anchor for a difficult span", t, func() {
		ctx := context.Background()
		prvdr := provider.NewMockProvider()
		prvdr.Fail = true

		pl, fingerprints, _ := newTestPipeline(prvdr, nil)

		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 0.8}
		So(fingerprints.Save(ctx, "dave", fp), ShouldBeNil)

		text := "The sparkle caught everyone off guard"
		result, err := pl.Rewrite(ctx, text, "dave", Options{})

		Convey("Then the span is reported unresolved and the text unchanged", func() {
			So(err, ShouldBeNil)
			So(result.Output, ShouldEqual, text)
			So(result.Decisions, ShouldBeEmpty)
			So(len(result.Unresolved), ShouldEqual, 1)
			So(result.Unresolved[0].Surface, ShouldEqual, "sparkle")
		})
	})
}

func TestRewriteEmptyInput(t *testing.T) {
	Convey("Given empty input", t, func() {
		pl, _, _ := newTestPipeline(provider.NewMockProvider(), nil)

		_, err := pl.Rewrite(context.Background(), "  ", "bob", Options{})

		Convey("Then the detection error propagates", func() {
			So(err, ShouldNotBeNil)
			So(errors.ErrDetection.Is(err), ShouldBeTrue)
		})
	})
}

func TestRewriteCancelledContext(t *testing.T) {
	Convey("Given an already expired request context", t, func() {
		prvdr := provider.NewMockProvider()
		pl, fingerprints, _ := newTestPipeline(prvdr, []qdrant.Document{
			{Text: "warm", Culture: "global", Score: 0.9},
		})

		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 1}
		So(fingerprints.Save(context.Background(), "erin", fp), ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := pl.Rewrite(ctx, "The glistening water stretched for miles", "erin", Options{})

		Convey("Then late spans come back unresolved instead of blocking", func() {
			So(err, ShouldBeNil)
			So(result.Output, ShouldEqual, "The glistening water stretched for miles")
			So(len(result.Unresolved), ShouldBeGreaterThan, 0)
		})
	})
}

func TestMemoryShiftsEffectiveSensitivity(t *testing.T) {
	Convey("Given repeated rejections of auditory substitutions", t, func() {
		ctx := context.Background()
		pl, fingerprints, history := newTestPipeline(provider.NewMockProvider(), nil)

		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Auditory] = saf.Sensitivity{Weight: 0.2}
		So(fingerprints.Save(ctx, "frank", fp), ShouldBeNil)

		text := "The bell rang through the valley"

		before, err := pl.Analyze(ctx, text, "frank")
		So(err, ShouldBeNil)

		for range 6 {
			record := memory.NewRecord("frank")
			record.Span = "bell"
			record.Modality = taxonomy.Auditory
			record.Replacement = "a gentle touch"
			record.Accepted = false
			So(history.Append(ctx, record), ShouldBeNil)
		}

		after, err := pl.Analyze(ctx, text, "frank")
		So(err, ShouldBeNil)

		Convey("Then the same span scores strictly higher afterwards", func() {
			So(len(before), ShouldBeGreaterThan, 0)
			So(len(after), ShouldEqual, len(before))
			for i := range before {
				if before[i].Expression.Modality == taxonomy.Auditory {
					So(after[i].Score, ShouldBeGreaterThan, before[i].Score)
				}
			}
		})

		Convey("Then the stored base fingerprint is unchanged", func() {
			stored, err := fingerprints.Load(ctx, "frank")
			So(err, ShouldBeNil)
			So(stored.Sensitivity(taxonomy.Auditory).Weight, ShouldEqual, 0.2)
		})
	})
}

func TestRewriteRecordsAppliedDecisions(t *testing.T) {
	Convey("Given a successful rewrite", t, func() {
		ctx := context.Background()
		prvdr := provider.NewMockProvider()
		pl, fingerprints, history := newTestPipeline(prvdr, []qdrant.Document{
			{Text: "warm", Culture: "global", Concept: "tactile-comfort", Score: 0.9},
		})

		fp := saf.NewFingerprint()
		fp.Sensitivities[taxonomy.Visual] = saf.Sensitivity{Weight: 1}
		So(fingerprints.Save(ctx, "grace", fp), ShouldBeNil)

		result, err := pl.Rewrite(ctx, "The glistening water stretched for miles", "grace", Options{
			Style: saf.StyleMinimal,
		})
		So(err, ShouldBeNil)
		So(len(result.Decisions), ShouldBeGreaterThan, 0)

		Convey("Then the outcome lands in memory", func() {
			// appends run async after the response
			var records []memory.Record
			for range 50 {
				records, _ = history.History(ctx, "grace", 0)
				if len(records) > 0 {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}

			So(len(records), ShouldEqual, len(result.Decisions))
			So(records[0].Span, ShouldEqual, "glistening")
			So(records[0].Accepted, ShouldBeTrue)
		})
	})
}
