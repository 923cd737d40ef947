package appointment

import (
	"errors"
	"regexp"
	"time"
)

// Validation errors carry the exact messages the submission endpoint has
// always returned; existing clients match on them, so they are part of the
// API contract rather than ordinary Go error strings.
var (
	ErrMissingFields            = errors.New("Missing user_id or appointment.")
	ErrInvalidUserID            = errors.New("Invalid user_id format.")
	ErrMissingAppointmentFields = errors.New("Missing required fields: date, time, or vet_name.")
	ErrInvalidDate              = errors.New("Invalid date format. Use YYYY-MM-DD.")
	ErrInvalidTime              = errors.New("Invalid time format. Use HH:MM (24-hour format).")
	ErrInvalidVetName           = errors.New("Vet name must only contain letters, spaces, periods, hyphens, and apostrophes.")
	ErrNotInFuture              = errors.New("Appointment must be scheduled in the future.")
)

var (
	userIDPattern  = regexp.MustCompile(`^\w+$`)
	datePattern    = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	timePattern    = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	vetNamePattern = regexp.MustCompile(`^[a-zA-Z\s.'-]{1,100}$`)
)

const scheduleLayout = "2006-01-02 15:04"

// Validate checks a submission against the acceptance rules in the order
// clients expect failures to be reported, returning the first violation.
// It has no side effects.
func Validate(userID string, sub *Submission, now time.Time) error {
	if userID == "" || sub == nil {
		return ErrMissingFields
	}
	if !userIDPattern.MatchString(userID) {
		return ErrInvalidUserID
	}
	if sub.Date == "" || sub.Time == "" || sub.VetName == "" {
		return ErrMissingAppointmentFields
	}
	if !datePattern.MatchString(sub.Date) {
		return ErrInvalidDate
	}
	if !timePattern.MatchString(sub.Time) {
		return ErrInvalidTime
	}
	if !vetNamePattern.MatchString(sub.VetName) {
		return ErrInvalidVetName
	}
	at, err := composeSchedule(sub.Date, sub.Time)
	if err != nil {
		// Passed the regex but is not a real calendar date, e.g. 2025-02-30.
		return ErrInvalidDate
	}
	if !at.After(now) {
		return ErrNotInFuture
	}
	return nil
}

// New validates a submission and builds the record to insert, with the
// scheduled instant composed once up front.
func New(userID string, sub *Submission, now time.Time) (*Appointment, error) {
	if err := Validate(userID, sub, now); err != nil {
		return nil, err
	}
	at, err := composeSchedule(sub.Date, sub.Time)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &Appointment{
		UserID:      userID,
		Date:        sub.Date,
		Time:        sub.Time,
		VetName:     sub.VetName,
		ScheduledAt: at,
	}, nil
}

// composeSchedule combines the date and clock fields into a single instant.
// All schedule arithmetic runs in UTC: clients submit wall-clock values and
// the service never converts between zones, so comparisons stay consistent
// regardless of the host's local zone.
func composeSchedule(date, clock string) (time.Time, error) {
	return time.ParseInLocation(scheduleLayout, date+" "+clock, time.UTC)
}
