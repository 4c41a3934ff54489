/*
Package rewrite applies substitution decisions to the original text under a
small state machine: draft, validate, then accept, retry, or fall back. The
machine always terminates in accept; when every decision has been reverted
the original text is its own trivially valid draft.
*/
package rewrite

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/senseable-go/pkg/provider"
	"github.com/theapemachine/senseable-go/pkg/reason"
	"github.com/theapemachine/senseable-go/pkg/saf"
)

type State string

const (
	StateDraft    State = "draft"
	StateValidate State = "validate"
	StateAccept   State = "accept"
	StateRetry    State = "retry"
	StateFallback State = "fallback"
)

/*
Result is the terminal output of one rewrite run.
*/
type Result struct {
	Output     string            `json:"output"`
	Applied    []reason.Decision `json:"applied"`
	Reverted   []reason.Decision `json:"reverted,omitempty"`
	Similarity float64           `json:"similarity"`
	Attempts   int               `json:"attempts"`
}

/*
Rewriter drives the draft/validate loop. The provider is only consulted for
the gentle and full styles; minimal rewrites are pure text splices and work
fully offline.
*/
type Rewriter struct {
	prvdr       provider.Interface
	validator   *Validator
	maxRetries  int
	temperature float64
	maxTokens   int64
}

type RewriterOption func(*Rewriter)

func NewRewriter(prvdr provider.Interface, options ...RewriterOption) *Rewriter {
	rewriter := &Rewriter{
		prvdr:       prvdr,
		maxRetries:  3,
		temperature: 0.4,
		maxTokens:   512,
	}

	for _, option := range options {
		option(rewriter)
	}

	if rewriter.validator == nil {
		rewriter.validator = NewValidator(prvdr, 0.6)
	}

	return rewriter
}

func WithMaxRetries(retries int) RewriterOption {
	return func(rewriter *Rewriter) { rewriter.maxRetries = retries }
}

func WithValidator(validator *Validator) RewriterOption {
	return func(rewriter *Rewriter) { rewriter.validator = validator }
}

func WithTemperature(temperature float64) RewriterOption {
	return func(rewriter *Rewriter) { rewriter.temperature = temperature }
}

/*
Rewrite applies the replace decisions to the original text in the given
style. Decisions that survive validation end up in Applied; decisions
sacrificed to reach a valid draft end up in Reverted, least confident
first.
*/
func (rewriter *Rewriter) Rewrite(
	ctx context.Context,
	original string,
	decisions []reason.Decision,
	style saf.RewriteStyle,
) Result {
	active := make([]reason.Decision, 0, len(decisions))
	for _, decision := range decisions {
		if decision.Verdict == reason.VerdictReplace && decision.Replacement != "" {
			active = append(active, decision)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Expr.Start < active[j].Expr.Start
	})

	var reverted []reason.Decision
	attempts := 0
	state := StateDraft

	var draft string

	for {
		switch state {
		case StateDraft:
			if len(active) == 0 {
				return Result{
					Output:     original,
					Reverted:   reverted,
					Similarity: 1,
					Attempts:   attempts,
				}
			}

			attempts++
			// tightness scales with retries so each attempt prompts more
			// conservatively
			draft = rewriter.draft(ctx, original, active, style, attempts-1)
			state = StateValidate

		case StateValidate:
			similarity, ok := rewriter.validator.Validate(
				ctx, original, draft, mustKeep(active),
			)

			if ok {
				return Result{
					Output:     draft,
					Applied:    active,
					Reverted:   reverted,
					Similarity: similarity,
					Attempts:   attempts,
				}
			}

			if attempts <= rewriter.maxRetries {
				state = StateRetry
			} else {
				state = StateFallback
			}

		case StateRetry:
			log.Debug("rewrite draft rejected, retrying", "attempt", attempts)
			state = StateDraft

		case StateFallback:
			// sacrifice the least confident decision and start over
			index := leastConfident(active)
			reverted = append(reverted, active[index])
			active = append(active[:index], active[index+1:]...)
			attempts = 0
			state = StateDraft
		}
	}
}

func (rewriter *Rewriter) draft(
	ctx context.Context,
	original string,
	active []reason.Decision,
	style saf.RewriteStyle,
	tightness int,
) string {
	spliced := splice(original, active)

	if style == saf.StyleMinimal || rewriter.prvdr == nil {
		return spliced
	}

	prompt := rewriter.prompt(original, spliced, active, style)

	generated, err := rewriter.prvdr.Generate(ctx, prompt, provider.Constraints{
		MaxTokens:   rewriter.maxTokens,
		Temperature: rewriter.temperature,
		MustKeep:    mustKeep(active),
		Style:       string(style),
		Tightness:   tightness,
	})
	if err != nil {
		log.Warn("generation unavailable, using direct substitution", "error", err)
		return spliced
	}

	generated = strings.TrimSpace(generated)
	if generated == "" {
		return spliced
	}

	return generated
}

func (rewriter *Rewriter) prompt(
	original, spliced string, active []reason.Decision, style saf.RewriteStyle,
) string {
	var sb strings.Builder

	switch style {
	case saf.StyleGentle:
		sb.WriteString("Lightly smooth the grammar of the rewritten text so the substitutions read naturally. Change nothing else.\n")
	default:
		sb.WriteString("Rewrite the original text so it expresses the same meaning while using each required substitution.\n")
	}

	fmt.Fprintf(&sb, "Original: %s\n", original)
	fmt.Fprintf(&sb, "Rewritten: %s\n", spliced)

	sb.WriteString("Required substitutions:\n")
	for _, decision := range active {
		fmt.Fprintf(&sb, "- %q replaces %q (%s)\n",
			decision.Replacement, decision.Expr.Surface, decision.Justification)
	}

	sb.WriteString("Respond with the final text only.")

	return sb.String()
}

/*
splice replaces each decision's span in the original, applied back to front
so earlier offsets stay valid. Replacements inherit the capitalization of
the span they replace.
*/
func splice(original string, decisions []reason.Decision) string {
	ordered := make([]reason.Decision, len(decisions))
	copy(ordered, decisions)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Expr.Start > ordered[j].Expr.Start
	})

	out := original
	for _, decision := range ordered {
		start, end := decision.Expr.Start, decision.Expr.End
		if start < 0 || end > len(out) || start > end {
			continue
		}

		replacement := matchCase(out[start:end], decision.Replacement)
		out = out[:start] + replacement + out[end:]
	}

	return out
}

func matchCase(span, replacement string) string {
	first, size := utf8.DecodeRuneInString(span)
	if size == 0 || !unicode.IsUpper(first) {
		return replacement
	}

	r, size := utf8.DecodeRuneInString(replacement)
	if size == 0 {
		return replacement
	}

	return string(unicode.ToUpper(r)) + replacement[size:]
}

func mustKeep(decisions []reason.Decision) []string {
	keep := make([]string, 0, len(decisions))
	for _, decision := range decisions {
		keep = append(keep, decision.Replacement)
	}
	return keep
}

// leastConfident picks the decision to sacrifice: lowest score, ties broken
// by later span position so earlier rewrites survive longer.
func leastConfident(decisions []reason.Decision) int {
	index := 0
	for i, decision := range decisions {
		if decision.Score < decisions[index].Score ||
			(decision.Score == decisions[index].Score &&
				decision.Expr.Start > decisions[index].Expr.Start) {
			index = i
		}
	}
	return index
}
