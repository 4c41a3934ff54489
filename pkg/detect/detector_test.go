package detect

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/senseable-go/pkg/errors"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

func TestDetectRejectsBadInput(t *testing.T) {
	Convey("Given a detector", t, func() {
		detector := NewDetector()

		Convey("When the input is empty", func() {
			_, err := detector.Detect("   ")

			Convey("Then detection fails", func() {
				So(err, ShouldNotBeNil)
				So(errors.ErrDetection.Is(err), ShouldBeTrue)
			})
		})

		Convey("When the input exceeds the maximum length", func() {
			small := NewDetector(WithMaxLength(16))
			_, err := small.Detect(strings.Repeat("bright ", 10))

			Convey("Then detection fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestDetectNoSensoryLanguage(t *testing.T) {
	Convey("Given text without sensory language", t, func() {
		detector := NewDetector()
		spans, err := detector.Detect("The committee approved the quarterly budget.")

		Convey("Then no spans are found and no error is raised", func() {
			So(err, ShouldBeNil)
			So(spans, ShouldBeEmpty)
		})
	})
}

func TestDetectSensorySpans(t *testing.T) {
	Convey("Given the bell sentence", t, func() {
		detector := NewDetector()
		text := "Her voice was a glistening bell"
		spans, err := detector.Detect(text)
		So(err, ShouldBeNil)

		byModality := map[taxonomy.Modality]int{}
		for _, span := range spans {
			byModality[span.Modality]++
		}

		Convey("Then both visual and auditory spans are present", func() {
			So(byModality[taxonomy.Visual], ShouldEqual, 1)
			So(byModality[taxonomy.Auditory], ShouldEqual, 2)
		})

		Convey("Then offsets point at the surfaces", func() {
			for _, span := range spans {
				So(text[span.Start:span.End], ShouldEqual, span.Surface)
			}
		})

		Convey("Then spans come back ordered and non-overlapping", func() {
			for i := 1; i < len(spans); i++ {
				So(spans[i].Start, ShouldBeGreaterThanOrEqualTo, spans[i-1].End)
			}
		})
	})
}

func TestDetectIdioms(t *testing.T) {
	Convey("Given text containing an idiom", t, func() {
		detector := NewDetector()
		spans, err := detector.Detect("The plan was as clear as day to everyone.")
		So(err, ShouldBeNil)

		Convey("Then the whole phrase is one visual span", func() {
			found := false
			for _, span := range spans {
				if span.Surface == "as clear as day" {
					found = true
					So(span.Modality, ShouldEqual, taxonomy.Visual)
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}

func TestDetectRepeatedIdioms(t *testing.T) {
	Convey("Given an idiom that appears twice", t, func() {
		detector := NewDetector()
		text := "It was as clear as day at noon and as clear as day at dusk."
		spans, err := detector.Detect(text)
		So(err, ShouldBeNil)

		Convey("Then every occurrence gets its own span", func() {
			var hits []Expression
			for _, span := range spans {
				if span.Surface == "as clear as day" {
					hits = append(hits, span)
				}
			}
			So(len(hits), ShouldEqual, 2)
			So(hits[0].Start, ShouldNotEqual, hits[1].Start)
			for _, hit := range hits {
				So(text[hit.Start:hit.End], ShouldEqual, "as clear as day")
			}
		})
	})
}

func TestDetectContextIntensity(t *testing.T) {
	Convey("Given a span near an intensity marker", t, func() {
		detector := NewDetector()

		plain, err := detector.Detect("a glow in the distance")
		So(err, ShouldBeNil)
		So(len(plain), ShouldBeGreaterThan, 0)

		marked, err := detector.Detect("a blinding glow in the distance")
		So(err, ShouldBeNil)

		var markedGlow, plainGlow Expression
		for _, span := range marked {
			if span.Surface == "glow" {
				markedGlow = span
			}
		}
		for _, span := range plain {
			if span.Surface == "glow" {
				plainGlow = span
			}
		}

		Convey("Then the marker raises intensity and confidence", func() {
			So(markedGlow.Intensity, ShouldBeGreaterThan, plainGlow.Intensity)
			So(markedGlow.Confidence, ShouldBeGreaterThan, plainGlow.Confidence)
		})
	})
}

func TestDetectDeterminism(t *testing.T) {
	Convey("Given the same input twice", t, func() {
		detector := NewDetector()
		text := "The deafening noise faded into a soft whisper"

		first, err1 := detector.Detect(text)
		second, err2 := detector.Detect(text)

		Convey("Then the results are identical", func() {
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)
			So(first, ShouldResemble, second)
		})
	})
}

func TestResolveOverlaps(t *testing.T) {
	Convey("Given overlapping spans", t, func() {
		spans := []Expression{
			{Start: 0, End: 10, Surface: "long span", Confidence: 0.6},
			{Start: 4, End: 8, Surface: "short", Confidence: 0.9},
			{Start: 12, End: 16, Surface: "free", Confidence: 0.3},
		}

		kept := resolveOverlaps(spans)

		Convey("Then the highest-confidence span wins its cluster", func() {
			So(len(kept), ShouldEqual, 2)
			So(kept[0].Surface, ShouldEqual, "short")
			So(kept[1].Surface, ShouldEqual, "free")
		})
	})
}
