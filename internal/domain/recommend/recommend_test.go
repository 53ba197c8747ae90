package recommend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/okian/musclewise/internal/domain/catalog"
	"github.com/okian/musclewise/internal/domain/model"
	"github.com/okian/musclewise/internal/domain/recommend"
	. "github.com/smartystreets/goconvey/convey"
)

func testCatalog() *catalog.Catalog {
	cat, err := catalog.New(
		[]catalog.Exercise{
			{ID: "bench", Name: "Bench Press", Equipment: "barbell", Category: "push", Muscles: []catalog.MuscleEngagement{
				{Muscle: "Pectoralis", Percentage: 60, Primary: true},
				{Muscle: "Deltoids (Anterior)", Percentage: 25},
				{Muscle: "Triceps", Percentage: 15},
			}},
			{ID: "db-press", Name: "Dumbbell Press", Equipment: "dumbbell", Category: "push", Muscles: []catalog.MuscleEngagement{
				{Muscle: "Pectoralis", Percentage: 55, Primary: true},
				{Muscle: "Deltoids (Anterior)", Percentage: 30},
				{Muscle: "Triceps", Percentage: 15},
			}},
			{ID: "fly", Name: "Cable Fly", Equipment: "cable", Category: "push", Muscles: []catalog.MuscleEngagement{
				{Muscle: "Pectoralis", Percentage: 90, Primary: true},
				{Muscle: "Deltoids (Anterior)", Percentage: 10},
			}},
			{ID: "pushdown", Name: "Pushdown", Equipment: "cable", Category: "push", Muscles: []catalog.MuscleEngagement{
				{Muscle: "Triceps", Percentage: 97, Primary: true},
				{Muscle: "Pectoralis", Percentage: 3},
			}},
			{ID: "dips", Name: "Dips", Equipment: "bodyweight", Category: "push", Muscles: []catalog.MuscleEngagement{
				{Muscle: "Triceps", Percentage: 50, Primary: true},
				{Muscle: "Pectoralis", Percentage: 40},
				{Muscle: "Deltoids (Anterior)", Percentage: 10},
			}},
			{ID: "curl", Name: "Curl", Equipment: "dumbbell", Category: "pull", Muscles: []catalog.MuscleEngagement{
				{Muscle: "Biceps", Percentage: 100, Primary: true},
			}},
		},
		[]catalog.Baseline{
			{Muscle: "Pectoralis", BaselineCapacity: 3000},
			{Muscle: "AnteriorDeltoids", BaselineCapacity: 2000},
			{Muscle: "Triceps", BaselineCapacity: 2000},
			{Muscle: "Biceps", BaselineCapacity: 1500},
		},
	)
	if err != nil {
		panic(err)
	}
	return cat
}

func pct(v float64) *float64 { return &v }

func fresh() []recommend.MuscleFatigue {
	return []recommend.MuscleFatigue{
		{Muscle: "Pectoralis", FatiguePercent: pct(0)},
		{Muscle: "AnteriorDeltoids", FatiguePercent: pct(0)},
		{Muscle: "Triceps", FatiguePercent: pct(0)},
	}
}

func ids(recs []recommend.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ExerciseID
	}
	return out
}

func find(recs []recommend.Recommendation, id string) recommend.Recommendation {
	for _, r := range recs {
		if r.ExerciseID == id {
			return r
		}
	}
	return recommend.Recommendation{}
}

func TestRecommend(t *testing.T) {
	Convey("Given a recommender over a small catalog", t, func() {
		ctx := context.Background()
		r := recommend.NewRecommender(testCatalog())

		Convey("When every muscle is fresh", func() {
			res, err := r.Recommend(ctx, "Pectoralis", fresh(), recommend.Options{})

			Convey("Then eligible exercises are ranked by score", func() {
				So(err, ShouldBeNil)
				So(ids(res.Safe), ShouldResemble, []string{"fly", "bench", "db-press", "dips"})
				So(res.Unsafe, ShouldBeEmpty)
				So(res.TotalFiltered, ShouldEqual, 4)
				So(res.SafeCount, ShouldEqual, 4)
				So(res.UnsafeCount, ShouldEqual, 0)
			})

			Convey("Then the factor breakdown follows the weights", func() {
				bench := find(res.Safe, "bench")
				So(bench.Factors, ShouldResemble, recommend.Factors{
					TargetMatch:    24,
					Freshness:      25,
					Variety:        15,
					Preference:     0,
					PrimaryBalance: 10,
				})
				So(bench.Score, ShouldEqual, 74)
				So(bench.Estimated, ShouldResemble, recommend.Estimate{Weight: 60, Sets: 3, Reps: 10})

				dips := find(res.Safe, "dips")
				So(dips.Factors.PrimaryBalance, ShouldEqual, 5)
				So(dips.Score, ShouldEqual, 61)
			})

			Convey("Then low-engagement exercises never appear", func() {
				So(ids(res.Safe), ShouldNotContain, "pushdown")
				So(ids(res.Unsafe), ShouldNotContain, "pushdown")
			})
		})

		Convey("When the target muscle is already fatigued", func() {
			states := fresh()
			states[0].FatiguePercent = pct(70)
			res, err := r.Recommend(ctx, "Pectoralis", states, recommend.Options{})

			Convey("Then candidates crossing capacity are unsafe with a zero score", func() {
				So(err, ShouldBeNil)
				So(ids(res.Unsafe), ShouldResemble, []string{"bench"})
				bench := res.Unsafe[0]
				So(bench.Score, ShouldEqual, 0)
				So(bench.Safe, ShouldBeFalse)
				So(bench.Warnings[0].Severity, ShouldEqual, recommend.SeverityCritical)
				So(bench.Warnings[0].Muscle, ShouldEqual, "Pectoralis")
				So(bench.Warnings[0].CurrentFatigue, ShouldEqual, 70)
				So(bench.Warnings[0].ProjectedFatigue, ShouldEqual, 106)
			})

			Convey("Then warnings below capacity keep a candidate safe", func() {
				db := find(res.Safe, "db-press")
				So(db.Safe, ShouldBeTrue)
				So(db.Warnings, ShouldHaveLength, 1)
				So(db.Warnings[0].Severity, ShouldEqual, recommend.SeverityWarning)
				So(db.Factors.Freshness, ShouldEqual, 15.4)
			})

			Convey("Then counts cover both partitions", func() {
				So(res.TotalFiltered, ShouldEqual, 4)
				So(res.SafeCount, ShouldEqual, 3)
				So(res.UnsafeCount, ShouldEqual, 1)
			})
		})

		Convey("When session volumes are supplied", func() {
			res, err := r.Recommend(ctx, "Pectoralis", fresh(), recommend.Options{
				CurrentVolumes: map[string]float64{"Pectoralis": 2900},
			})

			Convey("Then they take precedence over derived volume", func() {
				So(err, ShouldBeNil)
				So(res.SafeCount, ShouldEqual, 0)
				So(res.UnsafeCount, ShouldEqual, 4)
				So(ids(res.Unsafe), ShouldResemble, []string{"bench", "fly", "dips", "db-press"})
			})
		})

		Convey("When filters and preferences are given", func() {
			res, err := r.Recommend(ctx, "chest", fresh(), recommend.Options{
				CurrentWorkout:     []string{"bench"},
				AvailableEquipment: []string{"Barbell", "DUMBBELL", "bodyweight"},
				Preferences:        recommend.Preferences{Favorites: []string{"dips"}, Avoid: []string{"db-press"}},
			})

			Convey("Then only matching exercises remain", func() {
				So(err, ShouldBeNil)
				So(ids(res.Safe), ShouldResemble, []string{"dips"})
				So(res.TotalFiltered, ShouldEqual, 1)
			})

			Convey("Then variety and preference adjust the score", func() {
				dips := res.Safe[0]
				So(dips.Factors.Variety, ShouldEqual, 12)
				So(dips.Factors.Preference, ShouldEqual, 10)
				So(dips.Score, ShouldEqual, 68)
			})
		})

		Convey("When history exists for an exercise", func() {
			res, err := r.Recommend(ctx, "Pectoralis", fresh(), recommend.Options{
				WorkoutHistory: []recommend.HistoryEntry{
					{ExerciseID: "bench", Weight: 80, Reps: 8},
					{ExerciseID: "bench", Weight: 100, Reps: 5},
				},
				EstimatedWeight: 25,
				EstimatedSets:   4,
				EstimatedReps:   8,
			})

			Convey("Then the historical average wins over the explicit estimate", func() {
				So(err, ShouldBeNil)
				So(find(res.Safe, "bench").Estimated, ShouldResemble, recommend.Estimate{Weight: 90, Sets: 4, Reps: 8})
				So(find(res.Safe, "fly").Estimated.Weight, ShouldEqual, 25)
			})
		})

		Convey("When both fatigue values are present", func() {
			states := []recommend.MuscleFatigue{{Muscle: "Pectoralis", CurrentFatigue: pct(0), FatiguePercent: pct(95)}}
			res, err := r.Recommend(ctx, "Pectoralis", states, recommend.Options{})

			Convey("Then current fatigue is used", func() {
				So(err, ShouldBeNil)
				So(res.UnsafeCount, ShouldEqual, 0)
				So(find(res.Safe, "fly").Factors.Freshness, ShouldEqual, 25)
			})
		})

		Convey("When a limit is set", func() {
			res, err := r.Recommend(ctx, "Pectoralis", fresh(), recommend.Options{Limit: 2})

			Convey("Then the safe list is capped but counted in full", func() {
				So(err, ShouldBeNil)
				So(ids(res.Safe), ShouldResemble, []string{"fly", "bench"})
				So(res.SafeCount, ShouldEqual, 4)
			})
		})

		Convey("When a muscle has no baseline", func() {
			var skipped int
			r := recommend.NewRecommender(testCatalog(), recommend.WithSkipHook(func(string) { skipped++ }))
			res, err := r.Recommend(ctx, "Pectoralis", fresh(), recommend.Options{
				Baselines: catalog.Baselines{"Pectoralis": 3000},
			})

			Convey("Then its safety check is skipped", func() {
				So(err, ShouldBeNil)
				So(res.SafeCount, ShouldEqual, 4)
				So(skipped, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When engagement and fatigue are fractional", func() {
			cat, err := catalog.New(
				[]catalog.Exercise{
					{ID: "mixed", Name: "Mixed Press", Equipment: "machine", Category: "push", Muscles: []catalog.MuscleEngagement{
						{Muscle: "Pectoralis", Percentage: 50.1, Primary: true},
						{Muscle: "Triceps", Percentage: 49.9},
					}},
				},
				[]catalog.Baseline{
					{Muscle: "Pectoralis", BaselineCapacity: 100000},
					{Muscle: "Triceps", BaselineCapacity: 100000},
				},
			)
			So(err, ShouldBeNil)
			states := []recommend.MuscleFatigue{
				{Muscle: "Pectoralis", FatiguePercent: pct(49.84)},
				{Muscle: "Triceps", FatiguePercent: pct(49.84)},
			}
			res, err := recommend.NewRecommender(cat).Recommend(ctx, "Pectoralis", states, recommend.Options{})

			Convey("Then the score is rounded once from the unrounded factors", func() {
				So(err, ShouldBeNil)
				So(res.SafeCount, ShouldEqual, 1)
				rec := find(res.Safe, "mixed")
				So(rec.Score, ShouldEqual, 57.6)
				So(rec.Factors.TargetMatch, ShouldEqual, 20.0)
				So(rec.Factors.Freshness, ShouldEqual, 12.5)
				So(rec.Factors.Variety, ShouldEqual, 15.0)
			})
		})

		Convey("When the input is malformed", func() {
			_, err := r.Recommend(ctx, " ", []recommend.MuscleFatigue{
				{Muscle: ""},
				{Muscle: "Core", FatiguePercent: pct(-3)},
			}, recommend.Options{EstimatedSets: -1, Limit: -5})

			Convey("Then every problem is reported", func() {
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
				msg := err.Error()
				So(msg, ShouldContainSubstring, "targetMuscle is required")
				So(msg, ShouldContainSubstring, "muscleStates[0].muscle is required")
				So(msg, ShouldContainSubstring, "muscleStates[0] needs currentFatigue or fatiguePercent")
				So(msg, ShouldContainSubstring, "muscleStates[1] fatigue must be a non-negative number")
				So(msg, ShouldContainSubstring, "estimatedSets")
				So(msg, ShouldContainSubstring, "limit")
			})
		})

		Convey("When muscle states are nil", func() {
			_, err := r.Recommend(ctx, "Pectoralis", nil, recommend.Options{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestRecommendProperties(t *testing.T) {
	Convey("Given random fatigue pictures", t, func() {
		faker := gofakeit.New(3)
		r := recommend.NewRecommender(testCatalog())
		muscles := []string{"Pectoralis", "AnteriorDeltoids", "Triceps", "Biceps"}

		Convey("Then scores stay bounded and unsafe scores are zero", func() {
			for i := 0; i < 100; i++ {
				states := make([]recommend.MuscleFatigue, 0, len(muscles))
				for _, m := range muscles {
					states = append(states, recommend.MuscleFatigue{Muscle: m, FatiguePercent: pct(faker.Float64Range(0, 150))})
				}
				target := muscles[faker.IntRange(0, len(muscles)-1)]
				res, err := r.Recommend(context.Background(), target, states, recommend.Options{})
				So(err, ShouldBeNil)

				for _, rec := range res.Safe {
					f := rec.Factors
					So(f.TargetMatch+f.Freshness+f.Variety+f.Preference+f.PrimaryBalance, ShouldBeLessThanOrEqualTo, 100)
					So(rec.Score, ShouldBeBetweenOrEqual, 0, 100)
					So(rec.Safe, ShouldBeTrue)
				}
				for _, rec := range res.Unsafe {
					So(rec.Score, ShouldEqual, 0)
					So(rec.Safe, ShouldBeFalse)
				}
				if target == "Pectoralis" {
					So(ids(res.Safe), ShouldNotContain, "pushdown")
					So(ids(res.Unsafe), ShouldNotContain, "pushdown")
				}
				So(res.SafeCount+res.UnsafeCount, ShouldEqual, res.TotalFiltered)
			}
		})
	})
}
