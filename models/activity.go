package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Activity is a scheduled circle event. ActivityDay is the start of the
// event's calendar day in the app time zone; all times are stored in UTC.
type Activity struct {
	ID           string                `json:"id"`
	CircleID     string                `json:"circle_id"`
	CircleName   string                `json:"circle_name,omitempty"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Location     string                `json:"location"`
	Notes        *string               `json:"notes"`
	ActivityDay  time.Time             `json:"activity_day"`
	StartTime    time.Time             `json:"start_time"`
	EndTime      *time.Time            `json:"end_time"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Participants []ActivityParticipant `json:"participants,omitempty"`
}

// ActivityParticipant is one participation row. Canceling sets RemovedAt;
// joining again inserts a new row.
type ActivityParticipant struct {
	ID         string      `json:"id"`
	ActivityID string      `json:"activity_id"`
	UserID     string      `json:"user_id"`
	JoinedAt   time.Time   `json:"joined_at"`
	RemovedAt  *time.Time  `json:"removed_at"`
	User       *MemberUser `json:"user,omitempty"`
}

// ParticipationStatus is the result of toggling participation.
type ParticipationStatus string

const (
	ParticipationJoined   ParticipationStatus = "joined"
	ParticipationCanceled ParticipationStatus = "canceled"
)

// DaySchedule is one day of the weekly view, Date formatted MM/DD.
type DaySchedule struct {
	Date       string     `json:"date"`
	Activities []Activity `json:"activities"`
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ActivityRequest is the create / update payload. Date is YYYY-MM-DD and
// the times are HH:MM wall clock in the app time zone.
type ActivityRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Notes       *string `json:"notes"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     *string `json:"end_time"`
}

func (r *ActivityRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > 100 {
		return fmt.Errorf("title must be between 1 and 100 characters")
	}
	r.Description = strings.TrimSpace(r.Description)
	if utf8.RuneCountInString(r.Description) > 2000 {
		return fmt.Errorf("description must be at most 2000 characters")
	}
	r.Location = strings.TrimSpace(r.Location)
	if utf8.RuneCountInString(r.Location) > 100 {
		return fmt.Errorf("location must be at most 100 characters")
	}
	if r.Notes != nil {
		trimmed := strings.TrimSpace(*r.Notes)
		if trimmed == "" {
			r.Notes = nil
		} else if utf8.RuneCountInString(trimmed) > 2000 {
			return fmt.Errorf("notes must be at most 2000 characters")
		} else {
			r.Notes = &trimmed
		}
	}
	if r.EndTime != nil && strings.TrimSpace(*r.EndTime) == "" {
		r.EndTime = nil
	}
	return nil
}

// Schedule resolves Date, StartTime and EndTime in loc. It returns the
// start of the day, the start time and the optional end time, all in UTC.
// The end time must be after the start time.
func (r *ActivityRequest) Schedule(loc *time.Location) (day, start time.Time, end *time.Time, err error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(r.Date), loc)
	if err != nil {
		return day, start, nil, fmt.Errorf("date must be YYYY-MM-DD")
	}

	start, err = atClock(d, r.StartTime, loc)
	if err != nil {
		return day, start, nil, fmt.Errorf("start_time must be HH:MM")
	}

	if r.EndTime != nil {
		e, err := atClock(d, *r.EndTime, loc)
		if err != nil {
			return day, start, nil, fmt.Errorf("end_time must be HH:MM")
		}
		if !e.After(start) {
			return day, start, nil, fmt.Errorf("end_time must be after start_time")
		}
		e = e.UTC()
		end = &e
	}

	return d.UTC(), start.UTC(), end, nil
}

func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	c, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// MonthRange returns [first day of month, first day of next month) in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (from, to time.Time) {
	from = time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}
