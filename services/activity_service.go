package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/circles/models"
	"github.com/akinalp/circles/pkg"
	"github.com/akinalp/circles/pkg/i18n"
	"github.com/akinalp/circles/repository"
	"go.uber.org/zap"
)

const weekDays = 7

// ActivityService schedules circle activities. Dates and clock times in
// requests are wall-clock values in the configured location.
type ActivityService interface {
	Create(ctx context.Context, actorID, circleID string, req *models.ActivityRequest) (*models.Activity, error)
	Update(ctx context.Context, actorID, activityID string, req *models.ActivityRequest) (*models.Activity, error)
	Delete(ctx context.Context, actorID, activityID string) error
	// Get returns the activity with its active participants.
	Get(ctx context.Context, activityID string) (*models.Activity, error)
	ListByMonth(ctx context.Context, circleID string, year int, month time.Month) ([]models.Activity, error)
	// Weekly returns seven consecutive days starting at start's day, one
	// entry per day even when it has no activities.
	Weekly(ctx context.Context, userID string, start time.Time) ([]models.DaySchedule, error)
	Monthly(ctx context.Context, userID string, year int, month time.Month) ([]models.Activity, error)
	ToggleParticipation(ctx context.Context, userID, activityID string) (models.ParticipationStatus, error)
}

type activityService struct {
	store         *repository.Store
	notifications NotificationService
	loc           *time.Location
	language      string
	log           *zap.Logger
}

func NewActivityService(
	store *repository.Store,
	notifications NotificationService,
	loc *time.Location,
	defaultLanguage string,
	logger *zap.Logger,
) ActivityService {
	return &activityService{
		store:         store,
		notifications: notifications,
		loc:           loc,
		language:      defaultLanguage,
		log:           logger.Named("activity"),
	}
}

// Create stores the activity and enrolls every active member of the circle
// in one transaction, then notifies the members.
func (s *activityService) Create(ctx context.Context, actorID, circleID string, req *models.ActivityRequest) (*models.Activity, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	day, start, end, err := req.Schedule(s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	circle, err := s.store.Circles.GetByID(ctx, circleID)
	if err != nil {
		return nil, err
	}

	activity := &models.Activity{
		CircleID:    circleID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Notes:       req.Notes,
		ActivityDay: day,
		StartTime:   start,
		EndTime:     end,
		CreatedBy:   actorID,
	}

	var memberIDs []string
	err = s.store.WithTx(ctx, func(tx *repository.Repos) error {
		if _, err := requireAdmin(ctx, tx, circleID, actorID); err != nil {
			return err
		}
		if err := tx.Activities.Create(ctx, activity); err != nil {
			return err
		}

		memberIDs, err = tx.Members.ListActiveUserIDs(ctx, circleID)
		if err != nil {
			return err
		}
		return tx.Activities.AddParticipants(ctx, activity.ID, memberIDs)
	})
	if err != nil {
		return nil, err
	}

	l := i18n.NewLocalizer(s.language)
	_, err = s.notifications.Notify(ctx, &models.NewNotification{
		Type:            models.NotificationCircleActivity,
		Title:           l.TWithParams("notification.activity_title", map[string]string{"circle": circle.Name}),
		Content:         strPtr(activity.Title),
		CircleID:        &circleID,
		RelatedEntityID: &activity.ID,
		RecipientIDs:    without(memberIDs, actorID),
	})
	if err != nil {
		s.log.Warn("failed to notify activity", zap.String("activity_id", activity.ID), zap.Error(err))
	}

	return s.Get(ctx, activity.ID)
}

func (s *activityService) Update(ctx context.Context, actorID, activityID string, req *models.ActivityRequest) (*models.Activity, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	day, start, end, err := req.Schedule(s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	activity, err := s.store.Activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if _, err := requireAdmin(ctx, s.store.Repos, activity.CircleID, actorID); err != nil {
		return nil, err
	}

	activity.Title = req.Title
	activity.Description = req.Description
	activity.Location = req.Location
	activity.Notes = req.Notes
	activity.ActivityDay = day
	activity.StartTime = start
	activity.EndTime = end

	if err := s.store.Activities.Update(ctx, activity); err != nil {
		return nil, err
	}
	return s.Get(ctx, activityID)
}

func (s *activityService) Delete(ctx context.Context, actorID, activityID string) error {
	activity, err := s.store.Activities.GetByID(ctx, activityID)
	if err != nil {
		return err
	}
	if _, err := requireAdmin(ctx, s.store.Repos, activity.CircleID, actorID); err != nil {
		return err
	}
	return s.store.Activities.SoftDelete(ctx, activityID)
}

func (s *activityService) Get(ctx context.Context, activityID string) (*models.Activity, error) {
	activity, err := s.store.Activities.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	participants, err := s.store.Activities.ListParticipants(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if participants == nil {
		participants = []models.ActivityParticipant{}
	}
	activity.Participants = participants
	return activity, nil
}

func (s *activityService) ListByMonth(ctx context.Context, circleID string, year int, month time.Month) ([]models.Activity, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", pkg.ErrBadRequest)
	}
	from, to := models.MonthRange(year, month, s.loc)
	return s.store.Activities.ListByCircle(ctx, circleID, from, to)
}

func (s *activityService) Weekly(ctx context.Context, userID string, start time.Time) ([]models.DaySchedule, error) {
	from := models.StartOfDay(start, s.loc)
	to := from.AddDate(0, 0, weekDays)

	activities, err := s.store.Activities.ListForUser(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	week := make([]models.DaySchedule, weekDays)
	for i := range week {
		week[i] = models.DaySchedule{
			Date:       from.AddDate(0, 0, i).Format("01/02"),
			Activities: []models.Activity{},
		}
	}

	for _, a := range activities {
		idx := dayIndex(from, a.StartTime.In(s.loc))
		if idx < 0 || idx >= weekDays {
			continue
		}
		week[idx].Activities = append(week[idx].Activities, a)
	}

	return week, nil
}

// dayIndex counts calendar days from `from` to t in from's location. Date
// arithmetic keeps DST days at one step each.
func dayIndex(from, t time.Time) int {
	for i := 0; i < weekDays; i++ {
		next := from.AddDate(0, 0, i+1)
		if t.Before(next) {
			if t.Before(from.AddDate(0, 0, i)) {
				return -1
			}
			return i
		}
	}
	return weekDays
}

func (s *activityService) Monthly(ctx context.Context, userID string, year int, month time.Month) ([]models.Activity, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", pkg.ErrBadRequest)
	}
	from, to := models.MonthRange(year, month, s.loc)
	return s.store.Activities.ListForUser(ctx, userID, from, to)
}

// ToggleParticipation cancels an active participation or starts a new one.
func (s *activityService) ToggleParticipation(ctx context.Context, userID, activityID string) (models.ParticipationStatus, error) {
	var status models.ParticipationStatus
	err := s.store.WithTx(ctx, func(tx *repository.Repos) error {
		activity, err := tx.Activities.GetByID(ctx, activityID)
		if err != nil {
			return err
		}
		if _, err := requireMember(ctx, tx, activity.CircleID, userID); err != nil {
			return err
		}

		participation, err := tx.Activities.GetActiveParticipation(ctx, activityID, userID)
		switch {
		case err == nil:
			status = models.ParticipationCanceled
			return tx.Activities.RemoveParticipant(ctx, participation.ID, time.Now())
		case errors.Is(err, pkg.ErrNotFound):
			status = models.ParticipationJoined
			return tx.Activities.AddParticipants(ctx, activityID, []string{userID})
		default:
			return err
		}
	})
	if err != nil {
		return "", err
	}
	return status, nil
}
