package main

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/validator"
)

func (app *application) showCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	currency, err := app.models.Currency.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"currency": currency}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Rate *decimal.Decimal `json:"rate"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	if input.Rate == nil {
		v.AddError("rate", "must be provided")
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	currency := &data.Currency{Rate: *input.Rate}

	if data.ValidateCurrency(v, currency); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Currency.Set(currency)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Currency updated", envelope{"currency": currency}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
