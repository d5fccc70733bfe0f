package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

type TransitionTransactionRequest struct {
	Transition string `json:"transition" validate:"required"`
}

type TransitionTransactionResponse struct {
	TransactionID  string `json:"transaction_id"`
	LastTransition string `json:"last_transition"`
}

// transitionTransactionHandler applies one lifecycle transition to a
// sub-order transaction and runs the dependent cascade.
func (app *application) transitionTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transaction_id")

	var req TransitionTransactionRequest
	if err := readJson(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	tx, err := app.transitionService.Transition(r.Context(), transactionID, req.Transition)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingTransactionID), errors.Is(err, domain.ErrInvalidTransition):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrNotFound):
			app.notFoundError(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	response := TransitionTransactionResponse{
		TransactionID:  tx.ID,
		LastTransition: string(tx.LastTransition),
	}

	if err := app.jsonRespone(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}
