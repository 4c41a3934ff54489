/*
Package saf implements the Sensory Accessibility Fingerprint: the per-user
profile of modality sensitivities and cultural preferences that drives
difficulty scoring, retrieval, and traversal constraints.
*/
package saf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

/*
RewriteStyle is the user's preferred rewrite aggressiveness.
*/
type RewriteStyle string

const (
	StyleMinimal RewriteStyle = "minimal"
	StyleGentle  RewriteStyle = "gentle"
	StyleFull    RewriteStyle = "full"
)

/*
Sensitivity describes how one modality affects a user. Weight is in [0,1];
Excluded marks modalities the user cannot process at all, which traversal
treats as unreachable rather than merely expensive.
*/
type Sensitivity struct {
	Weight   float64 `json:"weight"`
	Excluded bool    `json:"excluded,omitempty"`
}

/*
Fingerprint is the per-user accessibility profile. It is mutated only by
memory updates after an accepted rewrite; everything else reads it.
*/
type Fingerprint struct {
	Sensitivities       map[taxonomy.Modality]Sensitivity `json:"sensitivities"`
	CultureTags         []string                          `json:"culture_tags"`
	StyleWeights        map[RewriteStyle]float64          `json:"style_weights"`
	MetaphorFamiliarity float64                           `json:"metaphor_familiarity"`
}

/*
NewFingerprint returns a neutral fingerprint: zero sensitivity everywhere,
global culture, balanced style weights.
*/
func NewFingerprint() Fingerprint {
	sensitivities := make(map[taxonomy.Modality]Sensitivity, len(taxonomy.Modalities))
	for _, modality := range taxonomy.Modalities {
		sensitivities[modality] = Sensitivity{}
	}

	return Fingerprint{
		Sensitivities: sensitivities,
		CultureTags:   []string{"global"},
		StyleWeights: map[RewriteStyle]float64{
			StyleMinimal: 0.33,
			StyleGentle:  0.33,
			StyleFull:    0.34,
		},
		MetaphorFamiliarity: 0.5,
	}
}

/*
Sensitivity returns the entry for a modality, zero-valued when absent.
*/
func (fp Fingerprint) Sensitivity(modality taxonomy.Modality) Sensitivity {
	return fp.Sensitivities[modality]
}

/*
Excluded returns the set of modalities the user cannot process.
*/
func (fp Fingerprint) Excluded() map[taxonomy.Modality]bool {
	out := map[taxonomy.Modality]bool{}
	for modality, s := range fp.Sensitivities {
		if s.Excluded {
			out[modality] = true
		}
	}
	return out
}

/*
Style picks the preferred rewrite style by highest weight, ties resolved in
conservative order (minimal before gentle before full).
*/
func (fp Fingerprint) Style() RewriteStyle {
	best := StyleMinimal
	for _, style := range []RewriteStyle{StyleGentle, StyleFull} {
		if fp.StyleWeights[style] > fp.StyleWeights[best] {
			best = style
		}
	}
	return best
}

/*
Hash returns a stable digest of the fingerprint, used to key per-request
decision caches. Map iteration order is normalized before hashing.
*/
func (fp Fingerprint) Hash() string {
	h := sha256.New()

	modalities := make([]string, 0, len(fp.Sensitivities))
	for modality := range fp.Sensitivities {
		modalities = append(modalities, string(modality))
	}
	sort.Strings(modalities)

	for _, modality := range modalities {
		s := fp.Sensitivities[taxonomy.Modality(modality)]
		fmt.Fprintf(h, "%s=%.4f,%t;", modality, s.Weight, s.Excluded)
	}

	tags := append([]string{}, fp.CultureTags...)
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(h, "t:%s;", tag)
	}

	fmt.Fprintf(h, "mf:%.4f", fp.MetaphorFamiliarity)

	return hex.EncodeToString(h.Sum(nil))[:16]
}

/*
Clone returns a deep copy so derived views never alias stored state.
*/
func (fp Fingerprint) Clone() Fingerprint {
	out := fp
	out.Sensitivities = make(map[taxonomy.Modality]Sensitivity, len(fp.Sensitivities))
	for modality, s := range fp.Sensitivities {
		out.Sensitivities[modality] = s
	}
	out.CultureTags = append([]string{}, fp.CultureTags...)
	out.StyleWeights = make(map[RewriteStyle]float64, len(fp.StyleWeights))
	for style, w := range fp.StyleWeights {
		out.StyleWeights[style] = w
	}
	return out
}
