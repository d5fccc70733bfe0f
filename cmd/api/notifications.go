package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
)

const defaultNotificationLimit = 50

func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			app.badRequestResponse(w, r, ErrInvalidID)
			return
		}
		limit = parsed
	}

	notifications, err := app.notificationRepo.ListByRecipientID(r.Context(), userID, limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, notifications); err != nil {
		app.internalServerError(w, r, err)
	}
}
