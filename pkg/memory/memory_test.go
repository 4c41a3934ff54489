package memory

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/senseable-go/pkg/saf"
	"github.com/theapemachine/senseable-go/pkg/taxonomy"
)

func feedback(userID string, modality taxonomy.Modality, accepted bool) Record {
	record := NewRecord(userID)
	record.Span = "test span"
	record.Modality = modality
	record.Replacement = "test replacement"
	record.Accepted = accepted
	return record
}

func TestInMemoryStoreAppendHistory(t *testing.T) {
	Convey("Given an in-memory history store", t, func() {
		store := NewInMemoryStore()
		ctx := context.Background()

		Convey("Then records without a user id are rejected", func() {
			So(store.Append(ctx, Record{}), ShouldNotBeNil)
		})

		Convey("When several records are appended", func() {
			So(store.Append(ctx, feedback("alice", taxonomy.Visual, true)), ShouldBeNil)
			So(store.Append(ctx, feedback("alice", taxonomy.Auditory, false)), ShouldBeNil)
			So(store.Append(ctx, feedback("bob", taxonomy.Tactile, true)), ShouldBeNil)

			Convey("Then history returns newest first, per user", func() {
				records, err := store.History(ctx, "alice", 0)
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 2)
				So(records[0].Modality, ShouldEqual, taxonomy.Auditory)
				So(records[1].Modality, ShouldEqual, taxonomy.Visual)
			})

			Convey("Then limit caps the result", func() {
				records, err := store.History(ctx, "alice", 1)
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 1)
			})

			Convey("Then timestamps are strictly monotonic per user", func() {
				records, _ := store.History(ctx, "alice", 0)
				So(records[0].Timestamp.After(records[1].Timestamp), ShouldBeTrue)
			})
		})
	})
}

func TestFileStoreRoundTrip(t *testing.T) {
	Convey("Given a file-backed history store", t, func() {
		store, err := NewFileStore(t.TempDir())
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When records are appended and read back", func() {
			So(store.Append(ctx, feedback("carol", taxonomy.Visual, true)), ShouldBeNil)
			So(store.Append(ctx, feedback("carol", taxonomy.Auditory, false)), ShouldBeNil)

			records, err := store.History(ctx, "carol", 0)

			Convey("Then the log round-trips newest first", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 2)
				So(records[0].Modality, ShouldEqual, taxonomy.Auditory)
				So(records[0].Accepted, ShouldBeFalse)
			})
		})

		Convey("Then an unknown user has empty history", func() {
			records, err := store.History(ctx, "nobody", 0)
			So(err, ShouldBeNil)
			So(records, ShouldBeEmpty)
		})
	})
}

func TestEffectiveFingerprint(t *testing.T) {
	Convey("Given a base fingerprint and feedback history", t, func() {
		base := saf.NewFingerprint()
		base.Sensitivities[taxonomy.Auditory] = saf.Sensitivity{Weight: 0.4}

		Convey("When the user repeatedly rejects auditory substitutions", func() {
			var history []Record
			for range 4 {
				history = append(history, feedback("dave", taxonomy.Auditory, false))
			}

			effective := EffectiveFingerprint(base, history, 0.05)

			Convey("Then effective auditory sensitivity rises above the base", func() {
				So(effective.Sensitivity(taxonomy.Auditory).Weight,
					ShouldAlmostEqual, 0.6, 0.0001)
			})

			Convey("Then the stored base is untouched", func() {
				So(base.Sensitivity(taxonomy.Auditory).Weight, ShouldEqual, 0.4)
			})
		})

		Convey("When the user accepts substitutions", func() {
			history := []Record{feedback("dave", taxonomy.Auditory, true)}
			effective := EffectiveFingerprint(base, history, 0.05)

			Convey("Then sensitivity relaxes slightly", func() {
				So(effective.Sensitivity(taxonomy.Auditory).Weight,
					ShouldAlmostEqual, 0.375, 0.0001)
			})
		})

		Convey("When records carry explicit deltas", func() {
			record := feedback("dave", taxonomy.Visual, true)
			record.Delta = map[taxonomy.Modality]float64{taxonomy.Tactile: 0.3}

			effective := EffectiveFingerprint(base, []Record{record}, 0.05)

			Convey("Then the delta applies on top", func() {
				So(effective.Sensitivity(taxonomy.Tactile).Weight,
					ShouldAlmostEqual, 0.3, 0.0001)
			})
		})

		Convey("Then weights clamp into [0,1]", func() {
			var history []Record
			for range 50 {
				history = append(history, feedback("dave", taxonomy.Auditory, false))
			}
			effective := EffectiveFingerprint(base, history, 0.05)
			So(effective.Sensitivity(taxonomy.Auditory).Weight, ShouldBeLessThanOrEqualTo, 1)
		})
	})
}
