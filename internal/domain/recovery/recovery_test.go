package recovery_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recovery"
	. "github.com/smartystreets/goconvey/convey"
)

const workoutAt = "2026-03-10T08:00:00.000Z"

func TestCalculate(t *testing.T) {
	Convey("Given a recovery calculator", t, func() {
		ctx := context.Background()
		calc := recovery.NewCalculator()
		states := []recovery.Input{{Muscle: "Pectoralis", FatiguePercent: 94.4}}

		Convey("When evaluated 24 hours after the workout", func() {
			res, err := calc.Calculate(ctx, states, workoutAt, "2026-03-11T08:00:00.000Z")

			Convey("Then 15 points have been recovered", func() {
				So(err, ShouldBeNil)
				So(res.MuscleStates, ShouldHaveLength, 1)
				s := res.MuscleStates[0]
				So(s.Muscle, ShouldEqual, "Pectoralis")
				So(s.CurrentFatigue, ShouldEqual, 79.4)
			})

			Convey("Then projections are relative to the evaluation time", func() {
				So(res.MuscleStates[0].Projections, ShouldResemble, recovery.Projections{H24: 64.4, H48: 49.4, H72: 34.4})
			})

			Convey("Then full recovery is projected from the current fatigue", func() {
				So(res.MuscleStates[0].FullyRecoveredAt, ShouldNotBeNil)
				So(*res.MuscleStates[0].FullyRecoveredAt, ShouldEqual, "2026-03-16T15:02:24.000Z")
				So(res.Timestamp, ShouldEqual, "2026-03-11T08:00:00.000Z")
			})
		})

		Convey("When evaluated 48 and 72 hours after the workout", func() {
			at48, err48 := calc.Calculate(ctx, states, workoutAt, "2026-03-12T08:00:00Z")
			at72, err72 := calc.Calculate(ctx, states, workoutAt, "2026-03-13T08:00:00+00:00")

			Convey("Then decay is linear", func() {
				So(err48, ShouldBeNil)
				So(err72, ShouldBeNil)
				So(at48.MuscleStates[0].CurrentFatigue, ShouldEqual, 64.4)
				So(at72.MuscleStates[0].CurrentFatigue, ShouldEqual, 49.4)
			})
		})

		Convey("When a muscle is already recovered", func() {
			res, err := calc.Calculate(ctx, []recovery.Input{
				{Muscle: "Biceps", FatiguePercent: 0},
				{Muscle: "Triceps", FatiguePercent: 10},
			}, workoutAt, "2026-03-13T08:00:00.000Z")

			Convey("Then fatigue is floored at zero with no recovery time", func() {
				So(err, ShouldBeNil)
				for _, s := range res.MuscleStates {
					So(s.CurrentFatigue, ShouldEqual, 0)
					So(s.Projections, ShouldResemble, recovery.Projections{})
					So(s.FullyRecoveredAt, ShouldBeNil)
				}
			})
		})

		Convey("When the evaluation time precedes the workout", func() {
			res, err := calc.Calculate(ctx, []recovery.Input{{Muscle: "Quadriceps", FatiguePercent: 50}},
				workoutAt, "2026-03-09T08:00:00.000Z")

			Convey("Then apparent fatigue increases", func() {
				So(err, ShouldBeNil)
				So(res.MuscleStates[0].CurrentFatigue, ShouldEqual, 65)
			})
		})

		Convey("When fatigue exceeds 100%", func() {
			res, err := calc.Calculate(ctx, []recovery.Input{{Muscle: "Lats", FatiguePercent: 150}},
				workoutAt, "2026-03-11T08:00:00.000Z")

			Convey("Then it decays at the same flat rate", func() {
				So(err, ShouldBeNil)
				So(res.MuscleStates[0].CurrentFatigue, ShouldEqual, 135)
			})
		})

		Convey("When fatigue is too large to express as a duration", func() {
			res, err := calc.Calculate(ctx, []recovery.Input{{Muscle: "Lats", FatiguePercent: 2e6}},
				workoutAt, workoutAt)

			Convey("Then full recovery is still after the evaluation time", func() {
				So(err, ShouldBeNil)
				st := res.MuscleStates[0]
				So(st.CurrentFatigue, ShouldEqual, 2e6)
				So(st.FullyRecoveredAt, ShouldNotBeNil)
				at, perr := time.Parse(time.RFC3339, *st.FullyRecoveredAt)
				So(perr, ShouldBeNil)
				So(at.After(mustParse(workoutAt)), ShouldBeTrue)
				So(at.Year(), ShouldBeGreaterThan, 2200)
			})
		})

		Convey("When the input is invalid", func() {
			cases := []struct {
				name     string
				states   []recovery.Input
				workout  string
				current  string
				contains string
			}{
				{"empty states", []recovery.Input{}, workoutAt, workoutAt, "non-empty list"},
				{"nil states", nil, workoutAt, workoutAt, "non-empty list"},
				{"missing name", []recovery.Input{{FatiguePercent: 1}}, workoutAt, workoutAt, "muscleStates[0].muscle"},
				{"negative fatigue", []recovery.Input{{Muscle: "Core", FatiguePercent: -1}}, workoutAt, workoutAt, "non-negative"},
				{"NaN fatigue", []recovery.Input{{Muscle: "Core", FatiguePercent: math.NaN()}}, workoutAt, workoutAt, "must be a number"},
				{"missing workout time", states, "", workoutAt, "workoutTimestamp is required"},
				{"bad current time", states, workoutAt, "yesterday", "currentTimestamp"},
			}

			Convey("Then each is rejected with the offending field", func() {
				for _, tc := range cases {
					_, err := calc.Calculate(ctx, tc.states, tc.workout, tc.current)
					So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
					So(err.Error(), ShouldContainSubstring, tc.contains)
				}
			})

			Convey("Then unparseable dates carry the timestamp kind", func() {
				_, err := calc.Calculate(ctx, states, "not-a-date", workoutAt)
				So(errors.Is(err, model.ErrInvalidTimestamp), ShouldBeTrue)
			})
		})
	})
}

func TestCalculateProperties(t *testing.T) {
	Convey("Given random fatigue levels and elapsed times", t, func() {
		faker := gofakeit.New(11)
		calc := recovery.NewCalculator()

		Convey("Then results are never negative and projections never increase", func() {
			for i := 0; i < 200; i++ {
				in := []recovery.Input{{Muscle: "Core", FatiguePercent: faker.Float64Range(0, 200)}}
				when := faker.DateRange(
					mustParse("2026-03-10T08:00:00Z").AddDate(0, 0, -3),
					mustParse("2026-03-10T08:00:00Z").AddDate(0, 0, 10),
				)
				res, err := calc.Calculate(context.Background(), in, workoutAt, model.FormatTimestamp(when))
				So(err, ShouldBeNil)

				s := res.MuscleStates[0]
				So(s.CurrentFatigue, ShouldBeGreaterThanOrEqualTo, 0)
				So(s.Projections.H24, ShouldBeLessThanOrEqualTo, s.CurrentFatigue)
				So(s.Projections.H48, ShouldBeLessThanOrEqualTo, s.Projections.H24)
				So(s.Projections.H72, ShouldBeLessThanOrEqualTo, s.Projections.H48)
				So(s.Projections.H72, ShouldBeGreaterThanOrEqualTo, 0)
				So(s.FullyRecoveredAt == nil, ShouldEqual, s.CurrentFatigue == 0)
			}
		})
	})
}

func mustParse(v string) time.Time {
	ts, err := model.ParseTimestamp("test", v)
	if err != nil {
		panic(err)
	}
	return ts
}
