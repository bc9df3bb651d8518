// internal/service/planner.go
package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"physiq/physiq-app/internal/ai"
	"physiq/physiq-app/internal/domain"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const coldStartDayCount = 6

// Mission fallbacks when the provider supplies none.
const (
	defaultColdStartMission   = "Build your base. Attack your weak points first."
	defaultProgressiveMission = "Heavier, harder, better than last week."
)

// PlanGenerator builds training weeks from a normalized analysis. The
// provider's output is never trusted structurally: both modes end with a
// repair pass, and total provider failure degrades to a template-only
// week instead of leaving the user without a plan.
type PlanGenerator struct {
	planProvider ai.PlanProvider
}

// NewPlanGenerator creates a new PlanGenerator.
func NewPlanGenerator(planProvider ai.PlanProvider) *PlanGenerator {
	return &PlanGenerator{planProvider: planProvider}
}

// ColdStart produces a fresh 6-day week from an analysis. Day 0 targets
// the top-ranked weak point, with priority decreasing across the week.
func (g *PlanGenerator) ColdStart(ctx context.Context, analysis *domain.ScanAnalysis) (mission string, days []domain.Day, aiPowered bool) {
	req := ai.PlanRequest{
		Score:        analysis.Score,
		Tier:         string(analysis.Tier),
		WeakPoints:   muscleStrings(analysis.WeakPoints),
		StrongPoints: muscleStrings(analysis.StrongPoints),
	}
	return g.withFallback(ctx, req, analysis.WeakPoints, nil, defaultColdStartMission)
}

// Progressive produces the next week from the same (possibly stale)
// analysis plus the prior week's completed history. The result is harder
// than last week and never repeats last week's exact exercise selection
// for a target muscle.
func (g *PlanGenerator) Progressive(ctx context.Context, analysis *domain.ScanAnalysis, history []domain.HistoryEntry) (mission string, days []domain.Day, aiPowered bool) {
	lastWeek := latestWeekEntries(history)

	req := ai.PlanRequest{
		Score:        analysis.Score,
		Tier:         string(analysis.Tier),
		WeakPoints:   muscleStrings(analysis.WeakPoints),
		StrongPoints: muscleStrings(analysis.StrongPoints),
	}
	for _, entry := range lastWeek {
		summary := ai.PlanHistorySummary{
			WeekNumber: entry.WeekNumber,
			DayIndex:   entry.DayIndex,
			Muscles:    muscleStrings(entry.TargetMuscles),
		}
		for _, ex := range entry.Exercises {
			summary.Exercises = append(summary.Exercises, ex.Name)
		}
		req.History = append(req.History, summary)
	}

	return g.withFallback(ctx, req, analysis.WeakPoints, lastWeek, defaultProgressiveMission)
}

// withFallback is the single provider-or-template decision point for
// both generation modes: call the provider, parse, repair; on any
// failure build the week from the template library instead and flag it
// as non-AI-sourced.
func (g *PlanGenerator) withFallback(ctx context.Context, req ai.PlanRequest, weakPoints []domain.MuscleGroup, lastWeek []domain.HistoryEntry, fallbackMission string) (string, []domain.Day, bool) {
	// Cold starts always produce a full 6-day week; progressive weeks
	// keep the provider's length down to the structural minimum.
	minDays := domain.MinPlanDays
	if len(lastWeek) == 0 {
		minDays = coldStartDayCount
	}

	raw, err := g.planProvider.GeneratePlan(ctx, req)
	if err == nil {
		mission, days, ok := parsePlanPayload(raw)
		if ok {
			days = repairDays(days, weakPoints, minDays)
			if len(lastWeek) > 0 {
				days = enforceVariation(days, lastWeek, weakPoints)
			} else {
				days = prioritizeWeakPoints(days, weakPoints)
			}
			if mission == "" {
				mission = fallbackMission
			}
			return mission, days, true
		}
		log.Printf("WARN: plan provider returned unusable payload, using template plan")
	} else {
		log.Printf("WARN: plan provider unavailable (%v), using template plan", err)
	}

	days := templateWeek(weakPoints)
	if len(lastWeek) > 0 {
		days = enforceVariation(days, lastWeek, weakPoints)
	}
	return fallbackMission, days, false
}

// parsePlanPayload pulls days out of the provider's raw JSON. Returns
// ok=false when the payload has no usable day structure at all.
func parsePlanPayload(raw []byte) (mission string, days []domain.Day, ok bool) {
	if !gjson.ValidBytes(raw) {
		return "", nil, false
	}
	parsed := gjson.ParseBytes(raw)
	rawDays := parsed.Get("days")
	if !rawDays.IsArray() {
		return "", nil, false
	}

	rawDays.ForEach(func(_, d gjson.Result) bool {
		day := domain.Day{
			Index:         len(days),
			Status:        domain.DayUpcoming,
			Focus:         d.Get("focus").String(),
			TargetMuscles: parseMuscles(d.Get("targetMuscles")),
		}
		d.Get("exercises").ForEach(func(_, e gjson.Result) bool {
			name := strings.TrimSpace(e.Get("name").String())
			if name == "" {
				return true
			}
			ex := domain.Exercise{
				ID:             uuid.NewString(),
				Name:           name,
				SetScheme:      strings.TrimSpace(e.Get("setScheme").String()),
				Compound:       e.Get("compound").Bool(),
				PrimaryMuscles: parseMuscles(e.Get("muscles")),
			}
			e.Get("steps").ForEach(func(_, s gjson.Result) bool {
				if step := strings.TrimSpace(s.String()); step != "" {
					ex.Steps = append(ex.Steps, step)
				}
				return true
			})
			day.Exercises = append(day.Exercises, ex)
			return true
		})
		days = append(days, day)
		return true
	})

	if len(days) == 0 {
		return "", nil, false
	}
	return strings.TrimSpace(parsed.Get("mission").String()), days, true
}

func parseMuscles(v gjson.Result) []domain.MuscleGroup {
	var muscles []domain.MuscleGroup
	v.ForEach(func(_, m gjson.Result) bool {
		muscle := domain.MuscleGroup(strings.ToLower(strings.TrimSpace(m.String())))
		if isKnownMuscle(muscle) {
			muscles = append(muscles, muscle)
		}
		return true
	})
	return muscles
}

// repairDays is the structural repair pass. Whatever the provider sent,
// the result satisfies: day count in [minDays, MaxPlanDays], every day
// has at least one exercise, every exercise has an ID, a set scheme,
// and at least MinExerciseSteps steps. Weak-point targeting flags are
// recomputed here so they cannot be spoofed by the payload.
func repairDays(days []domain.Day, weakPoints []domain.MuscleGroup, minDays int) []domain.Day {
	weak := make(map[domain.MuscleGroup]bool, len(weakPoints))
	for _, w := range weakPoints {
		weak[w] = true
	}

	if len(days) > domain.MaxPlanDays {
		days = days[:domain.MaxPlanDays]
	}

	order := muscleOrder(weakPoints)
	for i := range days {
		day := &days[i]
		day.Index = i
		day.Status = domain.DayUpcoming

		fallbackMuscle := order[i%len(order)]
		if len(day.TargetMuscles) == 0 {
			day.TargetMuscles = []domain.MuscleGroup{fallbackMuscle}
		}
		if len(day.Exercises) == 0 {
			day.Exercises = templateDay(i, day.TargetMuscles[0], weak[day.TargetMuscles[0]]).Exercises
		}
		if day.Focus == "" {
			day.Focus = focusName(day.TargetMuscles[0])
		}

		for j := range day.Exercises {
			ex := &day.Exercises[j]
			if ex.ID == "" {
				ex.ID = uuid.NewString()
			}
			if ex.SetScheme == "" {
				ex.SetScheme = "3x10"
			}
			if len(ex.Steps) < domain.MinExerciseSteps {
				ex.Steps = defaultSteps(ex.Name)
			}
			if len(ex.PrimaryMuscles) == 0 {
				ex.PrimaryMuscles = day.TargetMuscles
			}
			ex.Completed = false
			ex.TargetsWeak = false
			for _, m := range ex.PrimaryMuscles {
				if weak[m] {
					ex.TargetsWeak = true
					break
				}
			}
		}
	}

	// Too short a week: extend with template days for muscles not yet
	// covered this week.
	covered := make(map[domain.MuscleGroup]bool)
	for _, day := range days {
		for _, m := range day.TargetMuscles {
			covered[m] = true
		}
	}
	for len(days) < minDays {
		var next domain.MuscleGroup
		for _, m := range order {
			if !covered[m] {
				next = m
				break
			}
		}
		if next == "" {
			next = order[len(days)%len(order)]
		}
		covered[next] = true
		days = append(days, templateDay(len(days), next, weak[next]))
	}

	return days
}

// prioritizeWeakPoints moves days targeting the user's weak points to
// the front of a cold-start week, top-ranked weak point first. Within
// each group the provider's ordering is preserved.
func prioritizeWeakPoints(days []domain.Day, weakPoints []domain.MuscleGroup) []domain.Day {
	if len(weakPoints) == 0 {
		return days
	}
	rank := func(day domain.Day) int {
		for i, w := range weakPoints {
			for _, m := range day.TargetMuscles {
				if m == w {
					return i
				}
			}
		}
		return len(weakPoints)
	}

	reordered := make([]domain.Day, 0, len(days))
	for r := 0; r <= len(weakPoints); r++ {
		for _, day := range days {
			if rank(day) == r {
				reordered = append(reordered, day)
			}
		}
	}
	for i := range reordered {
		reordered[i].Index = i
	}
	return reordered
}

// templateWeek builds a full 6-day week from the library, weak points
// scheduled first.
func templateWeek(weakPoints []domain.MuscleGroup) []domain.Day {
	weak := make(map[domain.MuscleGroup]bool, len(weakPoints))
	for _, w := range weakPoints {
		weak[w] = true
	}
	order := muscleOrder(weakPoints)
	days := make([]domain.Day, 0, coldStartDayCount)
	for i := 0; i < coldStartDayCount; i++ {
		muscle := order[i%len(order)]
		days = append(days, templateDay(i, muscle, weak[muscle]))
	}
	return days
}

// enforceVariation applies the progressive-overload rules against last
// week's history: an exercise repeated with an identical scheme gets a
// harder one, a day whose selection exactly matches last week's for the
// same target muscle has one exercise swapped for an alternative, and a
// day's total set count never drops below last week's for that muscle,
// even when the provider swapped in entirely new exercises.
func enforceVariation(days []domain.Day, lastWeek []domain.HistoryEntry, weakPoints []domain.MuscleGroup) []domain.Day {
	weak := make(map[domain.MuscleGroup]bool, len(weakPoints))
	for _, w := range weakPoints {
		weak[w] = true
	}

	prevSchemes := make(map[string]string) // exercise name -> last week's scheme
	prevByMuscle := make(map[domain.MuscleGroup]map[string]bool)
	for _, entry := range lastWeek {
		for _, ex := range entry.Exercises {
			prevSchemes[ex.Name] = ex.SetScheme
		}
		for _, m := range entry.TargetMuscles {
			if prevByMuscle[m] == nil {
				prevByMuscle[m] = make(map[string]bool)
			}
			for _, ex := range entry.Exercises {
				prevByMuscle[m][ex.Name] = true
			}
		}
	}

	for i := range days {
		day := &days[i]

		for j := range day.Exercises {
			ex := &day.Exercises[j]
			if prev, repeated := prevSchemes[ex.Name]; repeated && prev == ex.SetScheme {
				ex.SetScheme = harderScheme(ex.SetScheme)
			}
		}

		if len(day.TargetMuscles) == 0 {
			continue
		}
		muscle := day.TargetMuscles[0]
		prevNames := prevByMuscle[muscle]
		if len(prevNames) == 0 || !sameSelection(day.Exercises, prevNames) {
			continue
		}
		// Identical selection to last week: swap in an alternative from
		// the library that was not used for this muscle last week.
		for _, tmpl := range templateLibrary[muscle] {
			if !prevNames[tmpl.Name] {
				day.Exercises[len(day.Exercises)-1] = templateExercise(tmpl, muscle, weak[muscle])
				break
			}
		}
	}

	// Volume floor: all-new exercises must not undercut last week's set
	// count for the same muscle.
	lastSets := make(map[domain.MuscleGroup]int)
	for _, entry := range lastWeek {
		if len(entry.TargetMuscles) == 0 {
			continue
		}
		total := 0
		for _, ex := range entry.Exercises {
			total += schemeSets(ex.SetScheme)
		}
		lastSets[entry.TargetMuscles[0]] += total
	}
	for i := range days {
		day := &days[i]
		if len(day.TargetMuscles) == 0 || len(day.Exercises) == 0 {
			continue
		}
		floor := lastSets[day.TargetMuscles[0]]
		current := 0
		for _, ex := range day.Exercises {
			current += schemeSets(ex.SetScheme)
		}
		for j := 0; current < floor; j++ {
			ex := &day.Exercises[j%len(day.Exercises)]
			ex.SetScheme = harderScheme(ex.SetScheme)
			current++
		}
	}
	return days
}

// sameSelection reports whether the day's exercise names exactly match
// last week's set for the muscle.
func sameSelection(exercises []domain.Exercise, prevNames map[string]bool) bool {
	if len(exercises) != len(prevNames) {
		return false
	}
	for _, ex := range exercises {
		if !prevNames[ex.Name] {
			return false
		}
	}
	return true
}

// schemeSets extracts the set count from a "SxR..." scheme. Unparseable
// schemes count as 3 so they still participate in volume comparisons.
func schemeSets(scheme string) int {
	if idx := strings.Index(scheme, "x"); idx > 0 {
		if sets, err := strconv.Atoi(scheme[:idx]); err == nil {
			return sets
		}
	}
	return 3
}

// harderScheme bumps a "SxR..." scheme by one set; anything unparseable
// gets an explicit extra-set suffix instead.
func harderScheme(scheme string) string {
	if idx := strings.Index(scheme, "x"); idx > 0 {
		if sets, err := strconv.Atoi(scheme[:idx]); err == nil {
			return fmt.Sprintf("%d%s", sets+1, scheme[idx:])
		}
	}
	return scheme + " +1 set"
}

// latestWeekEntries filters history down to the most recent week.
func latestWeekEntries(history []domain.HistoryEntry) []domain.HistoryEntry {
	maxWeek := 0
	for _, entry := range history {
		if entry.WeekNumber > maxWeek {
			maxWeek = entry.WeekNumber
		}
	}
	if maxWeek == 0 {
		return nil
	}
	var latest []domain.HistoryEntry
	for _, entry := range history {
		if entry.WeekNumber == maxWeek {
			latest = append(latest, entry)
		}
	}
	return latest
}

func muscleStrings(muscles []domain.MuscleGroup) []string {
	out := make([]string, len(muscles))
	for i, m := range muscles {
		out[i] = string(m)
	}
	return out
}
