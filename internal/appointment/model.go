package appointment

import "time"

// Submission is the appointment payload as read from a request body, before
// validation. Date and Time stay strings so format violations can be reported
// exactly as submitted.
type Submission struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	VetName string `json:"vet_name"`
}

// Appointment is a validated record held by the Store.
type Appointment struct {
	UserID      string
	Date        string
	Time        string
	VetName     string
	ScheduledAt time.Time
	Notified    bool
}

// DueWithin reports whether the scheduled instant falls within window of now.
// There is deliberately no lower bound: an appointment whose instant has
// already passed stays due until a dispatch succeeds, so a submission that
// slipped past its time between insert and poll still gets its notification.
func (a *Appointment) DueWithin(window time.Duration, now time.Time) bool {
	return a.ScheduledAt.Sub(now) <= window
}
