package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vetlink/appointment-notifier/internal/appointment"
)

func submitAppointmentHandler(store *appointment.Store, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, appointment.ErrMissingFields.Error())
			return
		}

		appt, err := appointment.New(req.UserID, req.Appointment, time.Now())
		if err != nil {
			handleSubmitError(w, err, log)
			return
		}

		store.Insert(appt)

		log.Info().
			Str("user_id", appt.UserID).
			Str("date", appt.Date).
			Str("time", appt.Time).
			Str("vet_name", appt.VetName).
			Int("stored", store.Len()).
			Msg("appointment logged")

		writeJSON(w, http.StatusOK, SubmitResponse{
			Status:  "success",
			Message: "Appointment logged successfully",
			AppointmentDetails: AppointmentDetails{
				UserID:  appt.UserID,
				Date:    appt.Date,
				Time:    appt.Time,
				VetName: appt.VetName,
			},
		})
	}
}

func handleSubmitError(w http.ResponseWriter, err error, log zerolog.Logger) {
	switch {
	case errors.Is(err, appointment.ErrMissingFields),
		errors.Is(err, appointment.ErrInvalidUserID),
		errors.Is(err, appointment.ErrMissingAppointmentFields),
		errors.Is(err, appointment.ErrInvalidDate),
		errors.Is(err, appointment.ErrInvalidTime),
		errors.Is(err, appointment.ErrInvalidVetName),
		errors.Is(err, appointment.ErrNotInFuture):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("unexpected submission error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
