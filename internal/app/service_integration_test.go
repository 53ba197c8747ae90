package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	service "github.com/okian/musclewise/internal/app"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	"github.com/okian/musclewise/internal/domain/recovery"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over the embedded catalog", t, func() {
		svc := service.New()
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		workout := &model.Workout{
			ID:   "push-day",
			Date: "2026-05-01",
			Exercises: []model.WorkoutExercise{
				{ExerciseID: "barbell-bench-press", Sets: []model.Set{
					{Weight: 100, Reps: 8}, {Weight: 100, Reps: 8}, {Weight: 200, Reps: 40, ToFailure: true},
				}},
				{ExerciseID: "tricep-pushdown", Sets: []model.Set{{Weight: 40, Reps: 12}, {Weight: 40, Reps: 12}}},
				{ExerciseID: "my-custom-move", Sets: []model.Set{{Weight: 10, Reps: 10}}},
			},
		}

		Convey("When a workout flows through every calculator", func() {
			fat, err := svc.CalculateFatigue(ctx, workout, nil)
			So(err, ShouldBeNil)

			suggestions, err := svc.CheckForBaselineUpdates(ctx, workout.Exercises, workout.Date)
			So(err, ShouldBeNil)

			inputs := make([]recovery.Input, 0, len(fat.MuscleStates))
			states := make([]recommend.MuscleFatigue, 0, len(fat.MuscleStates))
			for _, st := range fat.MuscleStates {
				fp := st.FatiguePercent
				inputs = append(inputs, recovery.Input{Muscle: st.Muscle, FatiguePercent: fp})
				states = append(states, recommend.MuscleFatigue{Muscle: st.Muscle, FatiguePercent: &fp})
			}
			rec, err := svc.CalculateRecovery(ctx, inputs, "2026-05-01T18:00:00Z", "2026-05-02T18:00:00Z")
			So(err, ShouldBeNil)

			recs, err := svc.RecommendExercises(ctx, "Pectoralis", states, recommend.Options{
				CurrentWorkout: []string{"barbell-bench-press"},
			})
			So(err, ShouldBeNil)

			Convey("Then the fatigue covers every muscle", func() {
				So(fat.MuscleStates, ShouldHaveLength, 16)
				for _, st := range fat.MuscleStates {
					So(st.FatiguePercent, ShouldBeGreaterThanOrEqualTo, 0)
				}
			})

			Convey("Then the heavy failure set proves a higher chest baseline", func() {
				So(suggestions, ShouldNotBeEmpty)
				found := false
				for _, sg := range suggestions {
					if sg.Muscle == "Pectoralis" {
						found = true
						So(sg.AchievedVolume, ShouldEqual, 5200)
						So(sg.Exercise, ShouldEqual, "Barbell Bench Press")
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("Then recovery lowers every muscle by a day's worth", func() {
				So(rec.MuscleStates, ShouldHaveLength, 16)
				for i, st := range rec.MuscleStates {
					So(st.CurrentFatigue, ShouldAlmostEqual, model.ClampZero(inputs[i].FatiguePercent-15), 0.051)
				}
			})

			Convey("Then bench press is not recommended again", func() {
				for _, r := range append(recs.Safe, recs.Unsafe...) {
					So(r.ExerciseID, ShouldNotEqual, "barbell-bench-press")
				}
				So(recs.TotalFiltered, ShouldEqual, recs.SafeCount+recs.UnsafeCount)
			})

			Convey("Then the stats count each call", func() {
				calls := svc.GetStats()["calls"].(map[string]int64)
				So(calls[service.OpFatigue], ShouldEqual, 1)
				So(calls[service.OpBaselineCheck], ShouldEqual, 1)
				So(calls[service.OpRecovery], ShouldEqual, 1)
				So(calls[service.OpRecommendations], ShouldEqual, 1)
			})
		})

		Convey("When random workouts over catalog exercises are calculated concurrently", func() {
			exercises, err := svc.Exercises(ctx)
			So(err, ShouldBeNil)
			faker := gofakeit.New(99)

			workouts := make([]*model.Workout, 20)
			for i := range workouts {
				w := &model.Workout{}
				for j := 0; j < faker.IntRange(1, 6); j++ {
					ex := exercises[faker.IntRange(0, len(exercises)-1)]
					w.Exercises = append(w.Exercises, model.WorkoutExercise{
						ExerciseID: ex.ID,
						Sets:       []model.Set{{Weight: faker.Float64Range(0, 150), Reps: faker.IntRange(1, 15)}},
					})
				}
				workouts[i] = w
			}

			errs := make(chan error, len(workouts))
			for _, w := range workouts {
				go func(w *model.Workout) {
					_, err := svc.CalculateFatigue(ctx, w, nil)
					errs <- err
				}(w)
			}

			Convey("Then every calculation succeeds", func() {
				for range workouts {
					So(<-errs, ShouldBeNil)
				}
			})
		})
	})
}
