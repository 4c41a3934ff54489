package taxonomy

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given tokens with surface noise", t, func() {
		Convey("Then punctuation and case are stripped", func() {
			So(Normalize("Glistening,"), ShouldEqual, "glistening")
			So(Normalize("  BELL!  "), ShouldEqual, "bell")
			So(Normalize("'warm'"), ShouldEqual, "warm")
		})

		Convey("Then pure punctuation normalizes to empty", func() {
			So(Normalize("..."), ShouldEqual, "")
		})
	})
}

func TestModalityFor(t *testing.T) {
	Convey("Given lexicon tokens", t, func() {
		Convey("Then each resolves to its modality", func() {
			modality, ok := ModalityFor("glistening")
			So(ok, ShouldBeTrue)
			So(modality, ShouldEqual, Visual)

			modality, ok = ModalityFor("bell")
			So(ok, ShouldBeTrue)
			So(modality, ShouldEqual, Auditory)

			modality, ok = ModalityFor("embrace")
			So(ok, ShouldBeTrue)
			So(modality, ShouldEqual, Tactile)
		})

		Convey("Then unknown tokens report false", func() {
			_, ok := ModalityFor("keyboard")
			So(ok, ShouldBeFalse)
		})

		Convey("Then collisions resolve by cultural weight", func() {
			// "light" is a visual keyword and a tactile intensity marker;
			// visual carries the higher base weight
			modality, ok := ModalityFor("light")
			So(ok, ShouldBeTrue)
			So(modality, ShouldEqual, Visual)
		})
	})
}

func TestIntensityOf(t *testing.T) {
	Convey("Given intensity markers", t, func() {
		Convey("Then each bucket maps to its score", func() {
			score, ok := IntensityOf("faint")
			So(ok, ShouldBeTrue)
			So(score, ShouldEqual, IntensityLow)

			score, ok = IntensityOf("deafening")
			So(ok, ShouldBeTrue)
			So(score, ShouldEqual, IntensityVeryHigh)

			score, ok = IntensityOf("blinding")
			So(ok, ShouldBeTrue)
			So(score, ShouldEqual, IntensityHigh)
		})

		Convey("Then non-markers report false with the medium default", func() {
			score, ok := IntensityOf("table")
			So(ok, ShouldBeFalse)
			So(score, ShouldEqual, IntensityMedium)
		})
	})
}

func TestCulturalEmphasis(t *testing.T) {
	Convey("Given culture tags", t, func() {
		Convey("Then known cultures scale the base weight", func() {
			global := CulturalEmphasis("global", Tactile)
			jp := CulturalEmphasis("culture:jp", Tactile)
			So(jp, ShouldBeLessThan, global)
		})

		Convey("Then unknown cultures fall back to global", func() {
			So(CulturalEmphasis("culture:zz", Visual), ShouldEqual, CulturalEmphasis("global", Visual))
		})
	})
}

func TestKeywordIndex(t *testing.T) {
	Convey("Given the keyword index", t, func() {
		index := KeywordIndex()

		Convey("Then every substitutable modality has keywords", func() {
			for _, modality := range Modalities {
				So(len(index[modality]), ShouldBeGreaterThan, 0)
			}
		})

		Convey("Then keywords are normalized and sorted", func() {
			for _, keywords := range index {
				for i, kw := range keywords {
					So(kw, ShouldEqual, Normalize(kw))
					if i > 0 {
						So(keywords[i-1] < kw, ShouldBeTrue)
					}
				}
			}
		})
	})
}
