// internal/service/plan_service.go
package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"physiq/physiq-app/internal/domain"
	"physiq/physiq-app/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound           = errors.New("no training plan found for this user")
	ErrDayNotFound            = errors.New("day index out of range")
	ErrDayNotToday            = errors.New("day is not the current training day")
	ErrDayNotUpcoming         = errors.New("day is not upcoming")
	ErrTodayAlreadySet        = errors.New("a training day is already in progress")
	ErrRegenerationInProgress = errors.New("plan regeneration in progress, retry shortly")
)

// --- Service Interface ---

type PlanService interface {
	// GetCurrentPlan returns the user's plan. A plan left fully done by
	// an earlier failed rollover re-attempts the rollover here.
	GetCurrentPlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)

	// CompleteDay marks a day done, auto-advances the next upcoming day
	// to today and, when the week is finished, synchronously rolls the
	// plan into the next week under the regeneration guard.
	CompleteDay(ctx context.Context, userID primitive.ObjectID, dayIndex int) (*domain.TrainingPlan, error)

	// SelectToday promotes an upcoming day to today. Only valid while no
	// other day is in progress.
	SelectToday(ctx context.Context, userID primitive.ObjectID, dayIndex int) (*domain.TrainingPlan, error)

	// CreateFromAnalysis builds and persists a week from a fresh scan
	// analysis. An existing plan keeps its week number and history; only
	// the days are superseded.
	CreateFromAnalysis(ctx context.Context, userID primitive.ObjectID, analysis *domain.ScanAnalysis) (*domain.TrainingPlan, error)
}

// --- Service Implementation ---

// planService owns every mutation of plan documents. All read-modify-
// write cycles for one user run under that user's lock so concurrent
// completion requests cannot both observe the same "today" day.
type planService struct {
	planRepo  repository.PlanRepository
	scanRepo  repository.ScanRepository
	generator *PlanGenerator
	guard     *RegenerationGuard

	locksMu   sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	scanRepo repository.ScanRepository,
	generator *PlanGenerator,
	guard *RegenerationGuard,
) PlanService {
	return &planService{
		planRepo:  planRepo,
		scanRepo:  scanRepo,
		generator: generator,
		guard:     guard,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing plan mutations for one user.
// Cross-user operations share nothing and proceed in parallel.
func (s *planService) userLock(userID primitive.ObjectID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	key := userID.Hex()
	lock, ok := s.userLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[key] = lock
	}
	return lock
}

func (s *planService) GetCurrentPlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	// A fully completed week means an earlier rollover failed or is
	// still running; fetching the plan re-attempts it.
	if plan.AllDone() {
		if rolled, rollErr := s.rollover(ctx, plan); rollErr == nil {
			return rolled, nil
		} else if !errors.Is(rollErr, ErrRegenerationInProgress) {
			log.Printf("WARN: rollover re-attempt failed for user %s: %v", userID.Hex(), rollErr)
		}
	}
	return plan, nil
}

func (s *planService) CompleteDay(ctx context.Context, userID primitive.ObjectID, dayIndex int) (*domain.TrainingPlan, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// A pending regeneration from a previous week-completion means the
	// days about to be replaced; reject the completion until it settles.
	if s.guard.InProgress(userID.Hex()) {
		return nil, ErrRegenerationInProgress
	}

	plan, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	if dayIndex < 0 || dayIndex >= len(plan.Days) {
		return nil, ErrDayNotFound
	}
	day := &plan.Days[dayIndex]
	if day.Status != domain.DayToday {
		// Invalid transition: fail without mutating anything.
		return nil, ErrDayNotToday
	}

	// today -> done, exercises preserved verbatim in history.
	day.Status = domain.DayDone
	for i := range day.Exercises {
		day.Exercises[i].Completed = true
	}
	plan.CompletedHistory = append(plan.CompletedHistory, domain.HistoryEntry{
		WeekNumber:    plan.WeekNumber,
		DayIndex:      day.Index,
		TargetMuscles: day.TargetMuscles,
		Exercises:     day.Exercises,
		CompletedAt:   time.Now().UTC(),
	})

	// Auto-advance: the next upcoming day becomes today.
	if next := dayIndex + 1; next < len(plan.Days) && plan.Days[next].Status == domain.DayUpcoming {
		plan.Days[next].Status = domain.DayToday
	}

	// Persist the completed state first so a failed rollover leaves the
	// week intact (all done) and retryable.
	if _, err := s.planRepo.Upsert(ctx, plan); err != nil {
		return nil, err
	}

	if plan.AllDone() {
		rolled, rollErr := s.rollover(ctx, plan)
		if rollErr != nil {
			if errors.Is(rollErr, ErrRegenerationInProgress) {
				// Another worker is already rolling this week over.
				return plan, nil
			}
			log.Printf("WARN: week rollover failed for user %s: %v", userID.Hex(), rollErr)
			return plan, nil
		}
		return rolled, nil
	}
	return plan, nil
}

func (s *planService) SelectToday(ctx context.Context, userID primitive.ObjectID, dayIndex int) (*domain.TrainingPlan, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	plan, err := s.planRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	if dayIndex < 0 || dayIndex >= len(plan.Days) {
		return nil, ErrDayNotFound
	}
	if plan.TodayIndex() >= 0 {
		return nil, ErrTodayAlreadySet
	}
	if plan.Days[dayIndex].Status != domain.DayUpcoming {
		return nil, ErrDayNotUpcoming
	}

	plan.Days[dayIndex].Status = domain.DayToday
	if _, err := s.planRepo.Upsert(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *planService) CreateFromAnalysis(ctx context.Context, userID primitive.ObjectID, analysis *domain.ScanAnalysis) (*domain.TrainingPlan, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	mission, days, aiPowered := s.generator.ColdStart(ctx, analysis)
	forceFirstToday(days)

	plan := &domain.TrainingPlan{
		UserID:     userID,
		WeekID:     uuid.NewString(),
		WeekNumber: 1,
		Mission:    mission,
		AIPowered:  aiPowered,
		Days:       days,
	}

	// Re-scanning mid-journey supersedes the days but never resets the
	// user's progression: week number and history carry over.
	if existing, err := s.planRepo.GetByUserID(ctx, userID); err == nil {
		plan.ID = existing.ID
		plan.WeekNumber = existing.WeekNumber
		plan.CompletedHistory = existing.CompletedHistory
		plan.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if _, err := s.planRepo.Upsert(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// rollover generates the next week from the completed one. Caller must
// hold the user lock. The regeneration guard keeps a second worker from
// starting the same expensive generation; the repository's weekNumber
// precondition keeps a stale winner from committing twice.
func (s *planService) rollover(ctx context.Context, plan *domain.TrainingPlan) (*domain.TrainingPlan, error) {
	userKey := plan.UserID.Hex()
	if !s.guard.TryAcquire(userKey) {
		return nil, ErrRegenerationInProgress
	}
	defer s.guard.Release(userKey)

	analysis := s.latestAnalysis(ctx, plan.UserID)
	mission, days, aiPowered := s.generator.Progressive(ctx, analysis, plan.CompletedHistory)
	forceFirstToday(days)

	next := &domain.TrainingPlan{
		ID:               plan.ID,
		UserID:           plan.UserID,
		WeekID:           uuid.NewString(),
		WeekNumber:       plan.WeekNumber + 1,
		Mission:          mission,
		AIPowered:        aiPowered,
		Days:             days,
		CompletedHistory: plan.CompletedHistory,
		CreatedAt:        plan.CreatedAt,
	}

	err := s.planRepo.ReplaceWeek(ctx, next, plan.WeekNumber)
	if err != nil {
		if errors.Is(err, repository.ErrStaleWeek) {
			// Lost the race to a concurrent rollover; serve its result.
			return s.planRepo.GetByUserID(ctx, plan.UserID)
		}
		return nil, err
	}
	log.Printf("INFO: user %s rolled over to week %d (aiPowered=%t)", userKey, next.WeekNumber, aiPowered)
	return next, nil
}

// latestAnalysis fetches the analysis feeding progressive generation.
// Absent or unreadable scans degrade to an empty analysis; the template
// fallback handles the rest.
func (s *planService) latestAnalysis(ctx context.Context, userID primitive.ObjectID) *domain.ScanAnalysis {
	scan, err := s.scanRepo.GetLatestAccepted(ctx, userID)
	if err == nil && scan.Analysis != nil {
		return scan.Analysis
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("WARN: could not load latest analysis for user %s: %v", userID.Hex(), err)
	}
	return &domain.ScanAnalysis{Valid: true, Tier: domain.TierFor(0)}
}

// forceFirstToday puts a fresh week into its canonical starting state:
// all days upcoming except day 0.
func forceFirstToday(days []domain.Day) {
	for i := range days {
		days[i].Status = domain.DayUpcoming
	}
	if len(days) > 0 {
		days[0].Status = domain.DayToday
	}
}
