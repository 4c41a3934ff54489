/*
Package detect scans input text for sensory expressions. Detection combines
lexicon lookups, a small idiom table, light lemmatization, and context-aware
confidence scoring. It is deliberately model-free so the pipeline can run
without a provider round-trip for this stage.
*/
package detect

import (
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/senseable-go/pkg/errors"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
Expression is one detected sensory span. Offsets are byte offsets into the
original text. Expressions are immutable once created.
*/
type Expression struct {
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Surface    string            `json:"surface"`
	Modality   taxonomy.Modality `json:"modality"`
	Intensity  float64           `json:"intensity"`
	Confidence float64           `json:"confidence"`
}

// idiom maps a fixed phrase to its implied modality.
var idioms = map[string]taxonomy.Modality{
	"as clear as day":     taxonomy.Visual,
	"a slap in the face":  taxonomy.Tactile,
	"music to my ears":    taxonomy.Auditory,
	"smells fishy":        taxonomy.Olfactory,
	"left a bitter taste": taxonomy.Gustatory,
}

var tokenPattern = regexp.MustCompile(`\S+`)

/*
Detector finds sensory expressions in raw text.
*/
type Detector struct {
	maxLen  int
	window  int
	culture string
	index   map[taxonomy.Modality][]string
	lookup  map[string]taxonomy.Modality
}

type DetectorOption func(*Detector)

func NewDetector(options ...DetectorOption) *Detector {
	detector := &Detector{
		maxLen:  1 << 16,
		window:  3,
		culture: "global",
		index:   taxonomy.KeywordIndex(),
	}

	for _, option := range options {
		option(detector)
	}

	detector.lookup = buildLookup(detector.index)

	return detector
}

func WithMaxLength(maxLen int) DetectorOption {
	return func(detector *Detector) { detector.maxLen = maxLen }
}

func WithContextWindow(window int) DetectorOption {
	return func(detector *Detector) { detector.window = window }
}

func WithCulture(culture string) DetectorOption {
	return func(detector *Detector) { detector.culture = culture }
}

// buildLookup flattens the keyword index into token -> dominant modality,
// resolving cross-modality collisions by cultural weight.
func buildLookup(index map[taxonomy.Modality][]string) map[string]taxonomy.Modality {
	lookup := make(map[string]taxonomy.Modality)

	for _, keywords := range index {
		for _, kw := range keywords {
			if _, seen := lookup[kw]; seen {
				continue
			}
			if modality, ok := taxonomy.ModalityFor(kw); ok {
				lookup[kw] = modality
			}
		}
	}

	return lookup
}

type token struct {
	text  string
	start int
	end   int
}

func tokenize(text string) []token {
	matches := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]token, 0, len(matches))

	for _, m := range matches {
		tokens = append(tokens, token{text: text[m[0]:m[1]], start: m[0], end: m[1]})
	}

	return tokens
}

// lemmatize applies a handful of English inflection heuristics. Good enough
// for lexicon matching; a morphological analyzer would replace this.
func lemmatize(norm string) string {
	switch {
	case strings.HasSuffix(norm, "ies"):
		return norm[:len(norm)-3] + "y"
	case strings.HasSuffix(norm, "ing") && len(norm) > 4:
		return norm[:len(norm)-3]
	case strings.HasSuffix(norm, "ed") && len(norm) > 3:
		return norm[:len(norm)-2]
	case strings.HasSuffix(norm, "s") && !strings.HasSuffix(norm, "ss"):
		return norm[:len(norm)-1]
	}
	return norm
}

/*
Detect returns the ordered, non-overlapping sensory expressions found in
text. Empty or oversized input is the only fatal condition; text without
sensory language yields an empty slice and nil error.
*/
func (detector *Detector) Detect(text string) ([]Expression, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrDetection.WithMessagef("input text is empty")
	}

	if len(text) > detector.maxLen {
		return nil, errors.ErrDetection.WithMessagef(
			"input text exceeds maximum length (%d > %d)", len(text), detector.maxLen,
		)
	}

	tokens := tokenize(text)
	norms := make([]string, len(tokens))
	for i, tok := range tokens {
		norms[i] = taxonomy.Normalize(tok.text)
	}

	var spans []Expression

	spans = append(spans, detector.matchIdioms(text)...)

	for i, tok := range tokens {
		norm := norms[i]
		if norm == "" {
			continue
		}

		modality, ok := detector.lookup[norm]
		if !ok {
			modality, ok = detector.lookup[lemmatize(norm)]
		}
		if !ok || modality == taxonomy.CrossSensory {
			continue
		}

		intensity, boost := detector.contextIntensity(norms, i)
		confidence := clamp01(0.5*taxonomy.CulturalEmphasis(detector.culture, modality) + boost)

		spans = append(spans, Expression{
			Start:      tok.start,
			End:        tok.end,
			Surface:    tok.text,
			Modality:   modality,
			Intensity:  intensity,
			Confidence: confidence,
		})
	}

	spans = resolveOverlaps(spans)

	log.Debug("detected sensory spans", "count", len(spans))

	return spans, nil
}

// matchIdioms finds phrase-level hits. Idioms carry a fixed confidence
// scaled by cultural emphasis and dominate token matches on overlap because
// they are longer.
func (detector *Detector) matchIdioms(text string) []Expression {
	lower := strings.ToLower(text)
	var spans []Expression

	for phrase, modality := range idioms {
		for offset := 0; offset < len(lower); {
			i := strings.Index(lower[offset:], phrase)
			if i < 0 {
				break
			}
			start := offset + i

			spans = append(spans, Expression{
				Start:      start,
				End:        start + len(phrase),
				Surface:    text[start : start+len(phrase)],
				Modality:   modality,
				Intensity:  taxonomy.IntensityMedium,
				Confidence: clamp01(0.75 * taxonomy.CulturalEmphasis(detector.culture, modality)),
			})

			offset = start + len(phrase)
		}
	}

	return spans
}

// contextIntensity scans the token window around index i for intensity
// markers. Returns the strongest marker's score and a confidence boost.
func (detector *Detector) contextIntensity(norms []string, i int) (float64, float64) {
	intensity := taxonomy.IntensityMedium
	boost := 0.0

	lo := max(0, i-detector.window)
	hi := min(len(norms), i+detector.window+1)

	for _, ctx := range norms[lo:hi] {
		score, ok := taxonomy.IntensityOf(ctx)
		if !ok {
			continue
		}
		if score > intensity {
			intensity = score
		}
		if b := score * 0.15; b > boost {
			boost = b
		}
	}

	return intensity, boost
}

// resolveOverlaps keeps the highest-confidence span in each overlapping
// cluster, ties broken by longest span, and returns spans ordered by start
// offset.
func resolveOverlaps(spans []Expression) []Expression {
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Confidence != spans[j].Confidence {
			return spans[i].Confidence > spans[j].Confidence
		}
		return (spans[i].End - spans[i].Start) > (spans[j].End - spans[j].Start)
	})

	var kept []Expression

	for _, span := range spans {
		overlaps := false
		for _, existing := range kept {
			if span.Start < existing.End && existing.Start < span.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, span)
		}
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })

	return kept
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
