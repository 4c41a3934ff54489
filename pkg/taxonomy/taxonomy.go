/*
Package taxonomy holds the sensory lexicon used by the detection and
scoring stages. The tables are reference data: loaded once, read-only at
request time, and deliberately lexically rich rather than exhaustive.
Deployments extend them through the config file.
*/
package taxonomy

import (
	"regexp"
	"sort"
	"strings"
)

/*
Modality identifies the sensory channel an expression invokes.
*/
type Modality string

const (
	Visual       Modality = "visual"
	Auditory     Modality = "auditory"
	Tactile      Modality = "tactile"
	Olfactory    Modality = "olfactory"
	Gustatory    Modality = "gustatory"
	Kinesthetic  Modality = "kinesthetic"
	CrossSensory Modality = "cross_sensory"
)

// Modalities lists the substitutable sensory channels in stable order.
// CrossSensory is a detection marker, not a substitution target.
var Modalities = []Modality{
	Visual, Auditory, Tactile, Olfactory, Gustatory, Kinesthetic,
}

/*
Entry groups the lexical categories for one modality together with its
default cultural weight.
*/
type Entry struct {
	BaseKeywords     []string
	Verbs            []string
	Adjectives       []string
	IntensityMarkers []string
	CulturalWeight   float64
}

var sensoryTaxonomy = map[Modality]Entry{
	Visual: {
		BaseKeywords: []string{
			"vision", "sight", "eye", "light", "dark", "color", "colour",
			"bright", "dim", "vivid", "glare", "glow", "shadow", "shine",
			"glistening", "sparkle", "glitter",
		},
		Verbs:            []string{"see", "look", "gaze", "glimpse", "observe", "notice", "glisten"},
		Adjectives:       []string{"visible", "blinding", "dazzling", "pale", "vibrant"},
		IntensityMarkers: []string{"faint", "mild", "strong", "intense", "blinding"},
		CulturalWeight:   0.9,
	},
	Auditory: {
		BaseKeywords: []string{
			"sound", "noise", "tone", "audio", "voice", "silence", "ring",
			"buzz", "echo", "whisper", "shout", "scream", "bell",
		},
		Verbs:            []string{"hear", "listen", "ring", "buzz", "hum"},
		Adjectives:       []string{"loud", "quiet", "deafening", "muted", "resonant"},
		IntensityMarkers: []string{"soft", "moderate", "loud", "deafening", "piercing"},
		CulturalWeight:   0.7,
	},
	Tactile: {
		BaseKeywords: []string{
			"touch", "texture", "soft", "rough", "smooth", "warm", "cold",
			"embrace", "velvet", "silk",
		},
		Verbs:            []string{"touch", "feel", "brush", "graze", "press"},
		Adjectives:       []string{"rough", "coarse", "silky", "sticky", "tender"},
		IntensityMarkers: []string{"light", "gentle", "firm", "forceful"},
		CulturalWeight:   0.8,
	},
	Olfactory: {
		BaseKeywords:     []string{"smell", "scent", "odor", "aroma", "fragrance", "reek"},
		Verbs:            []string{"smell", "sniff", "inhale"},
		Adjectives:       []string{"fragrant", "pungent", "musty"},
		IntensityMarkers: []string{"faint", "noticeable", "strong", "overpowering"},
		CulturalWeight:   0.6,
	},
	Gustatory: {
		BaseKeywords:     []string{"taste", "flavor", "flavour", "sweet", "salty", "bitter", "sour"},
		Verbs:            []string{"taste", "savor", "sip", "chew"},
		Adjectives:       []string{"sour", "savory", "spicy", "tangy"},
		IntensityMarkers: []string{"mild", "tangy", "strong", "overpowering"},
		CulturalWeight:   0.5,
	},
	Kinesthetic: {
		BaseKeywords:     []string{"motion", "movement", "balance", "sway", "spin", "rhythm", "weight"},
		Verbs:            []string{"move", "sway", "spin", "stumble", "drift"},
		Adjectives:       []string{"dizzying", "steady", "weightless", "heavy"},
		IntensityMarkers: []string{"slow", "steady", "rapid", "violent"},
		CulturalWeight:   0.65,
	},
	CrossSensory: {
		BaseKeywords:     []string{"like", "as", "resembles", "seems"},
		Adjectives:       []string{"metaphorical", "figurative"},
		IntensityMarkers: []string{"slightly", "very", "completely"},
		CulturalWeight:   0.65,
	},
}

// culturalModifiers maps a culture tag to per-modality emphasis multipliers.
// Unknown tags fall back to the neutral "global" row.
var culturalModifiers = map[string]map[Modality]float64{
	"culture:us": {
		Visual: 1.0, Auditory: 0.95, Tactile: 0.9,
		Olfactory: 0.8, Gustatory: 0.85, Kinesthetic: 0.9, CrossSensory: 0.9,
	},
	"culture:jp": {
		Visual: 0.95, Auditory: 0.9, Tactile: 0.7,
		Olfactory: 0.85, Gustatory: 0.9, Kinesthetic: 0.85, CrossSensory: 1.0,
	},
	"culture:mx": {
		Visual: 0.9, Auditory: 1.0, Tactile: 0.95,
		Olfactory: 0.95, Gustatory: 1.0, Kinesthetic: 0.9, CrossSensory: 0.9,
	},
	"global": {
		Visual: 1.0, Auditory: 1.0, Tactile: 1.0,
		Olfactory: 1.0, Gustatory: 1.0, Kinesthetic: 1.0, CrossSensory: 1.0,
	},
}

// Intensity buckets mapped into [0,1].
const (
	IntensityVeryLow  = 0.0
	IntensityLow      = 0.2
	IntensityMedium   = 0.5
	IntensityHigh     = 0.8
	IntensityVeryHigh = 1.0
)

var trimPattern = regexp.MustCompile(`^\W+|\W+$`)

/*
Normalize lowercases a token and strips surrounding punctuation so lexicon
matching is robust against surface noise.
*/
func Normalize(token string) string {
	return trimPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(token)), "")
}

/*
KeywordIndex returns a map of modality to a flattened, sorted keyword set.
The index is rebuilt on each call; callers that need it hot cache it (the
Detector does).
*/
func KeywordIndex() map[Modality][]string {
	out := make(map[Modality][]string, len(sensoryTaxonomy))

	for modality, entry := range sensoryTaxonomy {
		set := map[string]struct{}{}

		for _, group := range [][]string{
			entry.BaseKeywords, entry.Verbs, entry.Adjectives, entry.IntensityMarkers,
		} {
			for _, kw := range group {
				set[Normalize(kw)] = struct{}{}
			}
		}

		keywords := make([]string, 0, len(set))
		for kw := range set {
			keywords = append(keywords, kw)
		}

		sort.Strings(keywords)
		out[modality] = keywords
	}

	return out
}

/*
ModalityFor returns the dominant modality for a token, or false when the
token is not in the lexicon. A token present in multiple modalities resolves
to the one with the highest cultural weight, ties by stable modality order.
*/
func ModalityFor(token string) (Modality, bool) {
	norm := Normalize(token)
	index := KeywordIndex()

	var (
		best   Modality
		weight = -1.0
		found  bool
	)

	for _, modality := range append(append([]Modality{}, Modalities...), CrossSensory) {
		for _, kw := range index[modality] {
			if kw != norm {
				continue
			}
			if w := sensoryTaxonomy[modality].CulturalWeight; w > weight {
				best, weight, found = modality, w, true
			}
		}
	}

	return best, found
}

var (
	lowMarkers      = map[string]struct{}{"faint": {}, "mild": {}, "slightly": {}, "light": {}, "soft": {}}
	mediumMarkers   = map[string]struct{}{"noticeable": {}, "moderate": {}, "somewhat": {}, "steady": {}}
	highMarkers     = map[string]struct{}{"strong": {}, "intense": {}, "very": {}, "piercing": {}, "blinding": {}, "loud": {}}
	veryHighMarkers = map[string]struct{}{"overpowering": {}, "deafening": {}, "explosive": {}, "violent": {}}
)

/*
IntensityOf maps an intensity marker token to a score in [0,1]. Tokens that
are not recognized markers report false so callers keep their default.
*/
func IntensityOf(token string) (float64, bool) {
	norm := Normalize(token)

	if _, ok := lowMarkers[norm]; ok {
		return IntensityLow, true
	}
	if _, ok := mediumMarkers[norm]; ok {
		return IntensityMedium, true
	}
	if _, ok := highMarkers[norm]; ok {
		return IntensityHigh, true
	}
	if _, ok := veryHighMarkers[norm]; ok {
		return IntensityVeryHigh, true
	}

	return IntensityMedium, false
}

/*
CulturalEmphasis returns the emphasis factor for a modality under a culture
tag: the modality's base weight times the culture's modifier. Unknown
cultures use the neutral global row.
*/
func CulturalEmphasis(culture string, modality Modality) float64 {
	entry, ok := sensoryTaxonomy[modality]
	if !ok {
		return 1.0
	}

	modifiers, ok := culturalModifiers[culture]
	if !ok {
		modifiers = culturalModifiers["global"]
	}

	modifier, ok := modifiers[modality]
	if !ok {
		modifier = 1.0
	}

	return entry.CulturalWeight * modifier
}

/*
Lexicon exposes the raw entry for a modality, mainly for query expansion in
the retriever.
*/
func Lexicon(modality Modality) (Entry, bool) {
	entry, ok := sensoryTaxonomy[modality]
	return entry, ok
}
