// internal/service/templates.go
package service

import (
	"fmt"

	"physiq/physiq-app/internal/domain"

	"github.com/google/uuid"
)

// exerciseTemplate is one entry of the deterministic template library.
// Every template carries at least three steps so repaired plans always
// satisfy the exercise invariant.
type exerciseTemplate struct {
	Name      string
	SetScheme string
	Steps     []string
	Compound  bool
}

// templateLibrary maps each muscle group to its fallback exercises, in
// priority order. Used both to backfill structurally broken provider
// output and to build a full plan when the provider is down.
var templateLibrary = map[domain.MuscleGroup][]exerciseTemplate{
	domain.MuscleLegs: {
		{
			Name:      "Barbell Back Squat",
			SetScheme: "4x6-8",
			Steps: []string{
				"Set the bar on your upper traps and brace your core.",
				"Descend until your thighs are at least parallel to the floor.",
				"Drive through your heels back to standing.",
			},
			Compound: true,
		},
		{
			Name:      "Walking Lunge",
			SetScheme: "3x10 per leg",
			Steps: []string{
				"Step forward into a long stride.",
				"Lower until the rear knee nearly touches the floor.",
				"Push off the front foot into the next stride.",
			},
		},
		{
			Name:      "Romanian Deadlift",
			SetScheme: "3x8-10",
			Steps: []string{
				"Hold the bar at hip height with a flat back.",
				"Hinge at the hips, sliding the bar down your thighs.",
				"Squeeze your glutes to return to standing.",
			},
			Compound: true,
		},
	},
	domain.MuscleChest: {
		{
			Name:      "Barbell Bench Press",
			SetScheme: "4x6-8",
			Steps: []string{
				"Lie on the bench with feet planted and shoulder blades pinned.",
				"Lower the bar to mid-chest under control.",
				"Press the bar up until your arms lock out.",
			},
			Compound: true,
		},
		{
			Name:      "Incline Dumbbell Press",
			SetScheme: "3x8-10",
			Steps: []string{
				"Set the bench to a 30 degree incline.",
				"Lower the dumbbells to the outside of your chest.",
				"Press up and slightly inward to full extension.",
			},
		},
		{
			Name:      "Cable Fly",
			SetScheme: "3x12-15",
			Steps: []string{
				"Set the pulleys at chest height and step forward.",
				"Open your arms wide with a slight elbow bend.",
				"Bring your hands together in a hugging arc.",
			},
		},
	},
	domain.MuscleBack: {
		{
			Name:      "Pull-Up",
			SetScheme: "4xAMRAP",
			Steps: []string{
				"Hang from the bar with an overhand grip.",
				"Pull your chest toward the bar, leading with your elbows.",
				"Lower yourself fully under control.",
			},
			Compound: true,
		},
		{
			Name:      "Barbell Row",
			SetScheme: "4x8-10",
			Steps: []string{
				"Hinge forward with a flat back, bar hanging at arm's length.",
				"Row the bar to your lower ribs.",
				"Lower slowly without losing the hinge.",
			},
			Compound: true,
		},
		{
			Name:      "Lat Pulldown",
			SetScheme: "3x10-12",
			Steps: []string{
				"Grip the bar wider than shoulder width.",
				"Pull the bar to your upper chest while squeezing your lats.",
				"Control the bar back to the start.",
			},
		},
	},
	domain.MuscleShoulders: {
		{
			Name:      "Overhead Press",
			SetScheme: "4x6-8",
			Steps: []string{
				"Hold the bar at collarbone height with a tight core.",
				"Press the bar overhead until your arms lock out.",
				"Lower back to the collarbone under control.",
			},
			Compound: true,
		},
		{
			Name:      "Lateral Raise",
			SetScheme: "3x12-15",
			Steps: []string{
				"Stand with dumbbells at your sides.",
				"Raise your arms out until they reach shoulder height.",
				"Lower slowly, resisting the drop.",
			},
		},
		{
			Name:      "Rear Delt Fly",
			SetScheme: "3x12-15",
			Steps: []string{
				"Hinge forward with dumbbells hanging beneath you.",
				"Raise your arms out to the sides, squeezing your rear delts.",
				"Lower under control without swinging.",
			},
		},
	},
	domain.MuscleArms: {
		{
			Name:      "Barbell Curl",
			SetScheme: "3x8-10",
			Steps: []string{
				"Hold the bar at thigh height with an underhand grip.",
				"Curl the bar to shoulder height without swinging.",
				"Lower slowly to full extension.",
			},
		},
		{
			Name:      "Close-Grip Bench Press",
			SetScheme: "3x8-10",
			Steps: []string{
				"Grip the bar at shoulder width.",
				"Lower the bar to your lower chest, elbows tucked.",
				"Press up through your triceps to lockout.",
			},
			Compound: true,
		},
		{
			Name:      "Cable Triceps Pushdown",
			SetScheme: "3x12-15",
			Steps: []string{
				"Grip the bar with elbows pinned to your sides.",
				"Push the bar down to full extension.",
				"Let the bar rise until your forearms pass parallel.",
			},
		},
	},
	domain.MuscleAbs: {
		{
			Name:      "Hanging Knee Raise",
			SetScheme: "3x12-15",
			Steps: []string{
				"Hang from a bar with your legs straight.",
				"Raise your knees to hip height, curling your pelvis.",
				"Lower slowly without swinging.",
			},
		},
		{
			Name:      "Plank",
			SetScheme: "3x60s",
			Steps: []string{
				"Set up on your forearms with a straight line from head to heels.",
				"Brace your abs and glutes.",
				"Hold without letting your hips sag.",
			},
		},
		{
			Name:      "Cable Crunch",
			SetScheme: "3x15",
			Steps: []string{
				"Kneel below a cable with the rope behind your head.",
				"Crunch down, pulling your ribs toward your pelvis.",
				"Return under control, keeping tension on the abs.",
			},
		},
	},
}

// defaultSteps backfills an exercise the provider returned with too few
// steps. Generic but always structurally valid.
func defaultSteps(name string) []string {
	return []string{
		fmt.Sprintf("Set up for %s with a controlled starting position.", name),
		"Perform the movement through its full range of motion.",
		"Return to the start under control and repeat.",
	}
}

// templateExercise instantiates a library entry as a plan exercise.
func templateExercise(tmpl exerciseTemplate, muscle domain.MuscleGroup, targetsWeak bool) domain.Exercise {
	steps := make([]string, len(tmpl.Steps))
	copy(steps, tmpl.Steps)
	return domain.Exercise{
		ID:             uuid.NewString(),
		Name:           tmpl.Name,
		SetScheme:      tmpl.SetScheme,
		Steps:          steps,
		TargetsWeak:    targetsWeak,
		Compound:       tmpl.Compound,
		PrimaryMuscles: []domain.MuscleGroup{muscle},
	}
}

// templateDay builds a full training day for one muscle group.
func templateDay(index int, muscle domain.MuscleGroup, targetsWeak bool) domain.Day {
	templates := templateLibrary[muscle]
	exercises := make([]domain.Exercise, 0, len(templates))
	for _, tmpl := range templates {
		exercises = append(exercises, templateExercise(tmpl, muscle, targetsWeak))
	}
	return domain.Day{
		Index:         index,
		Status:        domain.DayUpcoming,
		Focus:         focusName(muscle),
		TargetMuscles: []domain.MuscleGroup{muscle},
		Exercises:     exercises,
	}
}

func focusName(muscle domain.MuscleGroup) string {
	switch muscle {
	case domain.MuscleLegs:
		return "Legs"
	case domain.MuscleChest:
		return "Chest"
	case domain.MuscleBack:
		return "Back"
	case domain.MuscleShoulders:
		return "Shoulders"
	case domain.MuscleArms:
		return "Arms"
	case domain.MuscleAbs:
		return "Core"
	default:
		return "Full Body"
	}
}

// muscleOrder returns the six training-day muscle targets with the
// user's weak points moved to the front, preserving relative order for
// the rest. Deterministic for a given weak-point list.
func muscleOrder(weakPoints []domain.MuscleGroup) []domain.MuscleGroup {
	order := make([]domain.MuscleGroup, 0, len(domain.AllMuscleGroups))
	inWeak := make(map[domain.MuscleGroup]bool, len(weakPoints))
	for _, w := range weakPoints {
		if _, ok := templateLibrary[w]; ok && !inWeak[w] {
			inWeak[w] = true
			order = append(order, w)
		}
	}
	for _, m := range []domain.MuscleGroup{
		domain.MuscleLegs, domain.MuscleChest, domain.MuscleBack,
		domain.MuscleShoulders, domain.MuscleArms, domain.MuscleAbs,
	} {
		if !inWeak[m] {
			order = append(order, m)
		}
	}
	return order
}
