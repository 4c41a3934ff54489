package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWithMessagef(t *testing.T) {
	Convey("Given a sentinel pipeline error", t, func() {
		wrapped := ErrDetection.WithMessagef("detect: %s", "input text is empty")

		Convey("Then the copy carries the formatted message", func() {
			So(wrapped.Message, ShouldEqual, "detect: input text is empty")
			So(wrapped.Code, ShouldEqual, ErrDetection.Code)
		})

		Convey("Then the sentinel itself is untouched", func() {
			So(ErrDetection.Message, ShouldEqual, "Detection failed")
		})

		Convey("Then errors.Is matches the copy against the sentinel", func() {
			So(stderrors.Is(wrapped, ErrDetection), ShouldBeTrue)
			So(stderrors.Is(wrapped, ErrValidation), ShouldBeFalse)
		})

		Convey("Then matching survives further wrapping", func() {
			outer := fmt.Errorf("request failed: %w", wrapped)
			So(stderrors.Is(outer, ErrDetection), ShouldBeTrue)
		})
	})
}

func TestRetryWithBackoff(t *testing.T) {
	Convey("Given a flaky operation", t, func() {
		config := &RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  time.Millisecond,
			MaxDelay:      5 * time.Millisecond,
			BackoffFactor: 2.0,
		}

		Convey("When it succeeds before the attempt budget", func() {
			calls := 0
			err := RetryWithBackoff(config, func() error {
				calls++
				if calls < 3 {
					return fmt.Errorf("transient")
				}
				return nil
			})

			Convey("Then the retry loop reports success", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 3)
			})
		})

		Convey("When it never succeeds", func() {
			calls := 0
			err := RetryWithBackoff(config, func() error {
				calls++
				return ErrProviderUnavailable
			})

			Convey("Then the budget is exhausted and the last error wrapped", func() {
				So(err, ShouldNotBeNil)
				So(calls, ShouldEqual, 3)
				So(stderrors.Is(err, ErrProviderUnavailable), ShouldBeTrue)
			})
		})
	})
}
