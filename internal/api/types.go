package api

import "github.com/vetlink/appointment-notifier/internal/appointment"

type SubmitRequest struct {
	UserID      string                  `json:"user_id"`
	Appointment *appointment.Submission `json:"appointment"`
}

// AppointmentDetails echoes the accepted submission back to the caller,
// user_id folded in alongside the appointment fields.
type AppointmentDetails struct {
	UserID  string `json:"user_id"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	VetName string `json:"vet_name"`
}

type SubmitResponse struct {
	Status             string             `json:"status"`
	Message            string             `json:"message"`
	AppointmentDetails AppointmentDetails `json:"appointment_details"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
