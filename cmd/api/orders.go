package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

var ErrInvalidID = errors.New("invalid ID format")

// initiateTransactionsHandler creates provider transactions for every
// sub-order of the plan that has none yet.
func (app *application) initiateTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	planID := chi.URLParam(r, "plan_id")
	if orderID == "" || planID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	plan, err := app.initiationService.InitiateTransactions(r.Context(), orderID, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			app.notFoundError(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, plan); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) reconcileOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	order, err := app.orderRepo.GetByID(r.Context(), orderID)
	if err != nil {
		app.notFoundError(w, r, err)
		return
	}
	if len(order.PlanIDs) == 0 {
		app.badRequestResponse(w, r, errors.New("order has no plan"))
		return
	}

	plan, err := app.planRepo.GetByID(r.Context(), order.PlanIDs[0])
	if err != nil {
		app.notFoundError(w, r, err)
		return
	}

	if err := app.statusService.Reconcile(r.Context(), order, plan); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	response := map[string]string{
		"order_id": order.ID,
		"state":    string(order.State),
	}

	if err := app.jsonRespone(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listPaymentRecordsHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	records, err := app.paymentRepo.ListByOrderID(r.Context(), orderID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, records); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listQuotationsHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		app.badRequestResponse(w, r, ErrInvalidID)
		return
	}

	quotations, err := app.quotationRepo.ListByOrderID(r.Context(), orderID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonRespone(w, http.StatusOK, quotations); err != nil {
		app.internalServerError(w, r, err)
	}
}
