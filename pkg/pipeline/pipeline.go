/*
Package pipeline wires the full rewrite flow: detect sensory spans, score
them against the user's fingerprint, resolve each actionable span through
retrieval and graph traversal, apply the winning substitutions under the
constrained rewriter, and record the outcome in memory.

Spans are resolved concurrently but reassembled strictly by their original
offsets, so output never depends on goroutine completion order.
*/
package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/senseable-go/pkg/detect"
	"github.com/theapemachine/senseable-go/pkg/errors"
	"github.com/theapemachine/senseable-go/pkg/memory"
	"github.com/theapemachine/senseable-go/pkg/reason"
	"github.com/theapemachine/senseable-go/pkg/retrieve"
	"github.com/theapemachine/senseable-go/pkg/rewrite"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/score"
)

/*
Options are per-request overrides. Zero values defer to the pipeline's
configured defaults.
*/
type Options struct {
	Threshold   *float64         `json:"threshold,omitempty"`
	MaxHops     int              `json:"max_hops,omitempty"`
	CultureTags []string         `json:"culture_tags,omitempty"`
	Style       saf.RewriteStyle `json:"style,omitempty"`
}

/*
Result is the rewrite outcome: the final text, one decision per actionable
span, and the spans that could not be resolved in time or at all.
*/
type Result struct {
	Output     string              `json:"output"`
	Decisions  []reason.Decision   `json:"decisions"`
	Unresolved []detect.Expression `json:"unresolved,omitempty"`
	Similarity float64             `json:"similarity"`
}

/*
Pipeline owns the stage components. All of them are safe for concurrent
use, so one pipeline serves every request.
*/
type Pipeline struct {
	detector     *detect.Detector
	scorer       *score.Scorer
	retriever    *retrieve.Retriever
	engine       *reason.Engine
	rewriter     *rewrite.Rewriter
	fingerprints saf.Store
	history      memory.Store

	threshold    float64
	maxHops      int
	learningRate float64
	historyDepth int
}

type PipelineOption func(*Pipeline)

func New(
	detector *detect.Detector,
	scorer *score.Scorer,
	retriever *retrieve.Retriever,
	engine *reason.Engine,
	rewriter *rewrite.Rewriter,
	fingerprints saf.Store,
	history memory.Store,
	options ...PipelineOption,
) *Pipeline {
	pipeline := &Pipeline{
		detector:     detector,
		scorer:       scorer,
		retriever:    retriever,
		engine:       engine,
		rewriter:     rewriter,
		fingerprints: fingerprints,
		history:      history,
		threshold:    0.25,
		maxHops:      3,
		learningRate: 0.05,
		historyDepth: 50,
	}

	for _, option := range options {
		option(pipeline)
	}

	return pipeline
}

func WithThreshold(threshold float64) PipelineOption {
	return func(pipeline *Pipeline) { pipeline.threshold = threshold }
}

func WithMaxHops(maxHops int) PipelineOption {
	return func(pipeline *Pipeline) { pipeline.maxHops = maxHops }
}

func WithLearningRate(rate float64) PipelineOption {
	return func(pipeline *Pipeline) { pipeline.learningRate = rate }
}

/*
Rewrite runs the full flow for one text. Only detection errors propagate;
every downstream failure degrades to unresolved spans or unchanged text.
The context deadline bounds span resolution: spans still pending at the
deadline come back unresolved instead of blocking the response.
*/
func (pipeline *Pipeline) Rewrite(
	ctx context.Context, text, userID string, opts Options,
) (Result, error) {
	spans, err := pipeline.detector.Detect(text)
	if err != nil {
		return Result{}, errors.ErrDetection.WithMessagef("detect: %v", err)
	}

	if len(spans) == 0 {
		return Result{Output: text, Similarity: 1}, nil
	}

	fingerprint := pipeline.effectiveFingerprint(ctx, userID)
	if len(opts.CultureTags) > 0 {
		fingerprint.CultureTags = opts.CultureTags
	}

	threshold := pipeline.threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	maxHops := pipeline.maxHops
	if opts.MaxHops > 0 {
		maxHops = opts.MaxHops
	}

	var actionable []score.Difficulty
	for _, difficulty := range pipeline.scorer.ScoreAll(spans, fingerprint) {
		if score.Actionable(difficulty, threshold) {
			actionable = append(actionable, difficulty)
		}
	}

	if len(actionable) == 0 {
		return Result{Output: text, Similarity: 1}, nil
	}

	decisions, unresolved := pipeline.resolve(ctx, actionable, fingerprint, maxHops)

	style := fingerprint.Style()
	if opts.Style != "" {
		style = opts.Style
	}

	rewritten := pipeline.rewriter.Rewrite(ctx, text, decisions, style)

	// reverted decisions are spans the validator refused to change
	for _, decision := range rewritten.Reverted {
		unresolved = append(unresolved, decision.Expr)
	}
	sort.Slice(unresolved, func(i, j int) bool {
		return unresolved[i].Start < unresolved[j].Start
	})

	pipeline.record(userID, rewritten.Applied)

	return Result{
		Output:     rewritten.Output,
		Decisions:  rewritten.Applied,
		Unresolved: unresolved,
		Similarity: rewritten.Similarity,
	}, nil
}

/*
Analyze exposes detection and scoring without rewriting, for callers that
only want to inspect a text.
*/
func (pipeline *Pipeline) Analyze(
	ctx context.Context, text, userID string,
) ([]score.Difficulty, error) {
	spans, err := pipeline.detector.Detect(text)
	if err != nil {
		return nil, errors.ErrDetection.WithMessagef("detect: %v", err)
	}

	fingerprint := pipeline.effectiveFingerprint(ctx, userID)

	return pipeline.scorer.ScoreAll(spans, fingerprint), nil
}

// resolve runs retrieval and reasoning per span concurrently, reassembling
// results by original span offsets.
func (pipeline *Pipeline) resolve(
	ctx context.Context,
	actionable []score.Difficulty,
	fingerprint saf.Fingerprint,
	maxHops int,
) ([]reason.Decision, []detect.Expression) {
	type outcome struct {
		decision reason.Decision
		done     bool
	}

	outcomes := make([]outcome, len(actionable))

	// one session per request: repeated concepts resolve identically here,
	// the next request sees fresh retrieval results
	session := pipeline.engine.Session()

	var wg sync.WaitGroup
	for i, difficulty := range actionable {
		wg.Add(1)
		go func(i int, difficulty score.Difficulty) {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			candidates := pipeline.retriever.Retrieve(
				ctx, difficulty.Expression, fingerprint.CultureTags,
			)

			outcomes[i] = outcome{
				decision: session.Decide(
					difficulty.Expression, candidates, fingerprint, maxHops,
				),
				done: ctx.Err() == nil,
			}
		}(i, difficulty)
	}
	wg.Wait()

	var decisions []reason.Decision
	var unresolved []detect.Expression

	// actionable is already offset-ordered, so iterating by index keeps the
	// output independent of completion order
	for i, difficulty := range actionable {
		switch {
		case !outcomes[i].done:
			unresolved = append(unresolved, difficulty.Expression)
		case outcomes[i].decision.Verdict == reason.VerdictNoChange:
			unresolved = append(unresolved, difficulty.Expression)
		default:
			decisions = append(decisions, outcomes[i].decision)
		}
	}

	return decisions, unresolved
}

// effectiveFingerprint loads the stored base profile and folds recent
// feedback history into it. Missing profiles start neutral.
func (pipeline *Pipeline) effectiveFingerprint(
	ctx context.Context, userID string,
) saf.Fingerprint {
	base, err := pipeline.fingerprints.Load(ctx, userID)
	if err != nil {
		base = saf.NewFingerprint()
	}

	if pipeline.history == nil {
		return base
	}

	records, err := pipeline.history.History(ctx, userID, pipeline.historyDepth)
	if err != nil {
		log.Warn("history unavailable, using base fingerprint", "user", userID, "error", err)
		return base
	}

	return memory.EffectiveFingerprint(base, records, pipeline.learningRate)
}

// record appends applied decisions to memory asynchronously. Appends for
// one user stay ordered because they run on a single goroutine per call
// and the store serializes writers.
func (pipeline *Pipeline) record(userID string, applied []reason.Decision) {
	if pipeline.history == nil || len(applied) == 0 {
		return
	}

	records := make([]memory.Record, 0, len(applied))
	for _, decision := range applied {
		record := memory.NewRecord(userID)
		record.Span = decision.Expr.Surface
		record.Modality = decision.Expr.Modality
		record.Replacement = decision.Replacement
		record.Accepted = true
		records = append(records, record)
	}

	go func() {
		ctx := context.Background()
		for _, record := range records {
			if err := pipeline.history.Append(ctx, record); err != nil {
				log.Warn("memory append failed", "user", userID, "error", err)
			}
		}
	}()
}
