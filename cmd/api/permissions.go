package main

import (
	"errors"
	"net/http"

	"github.com/hilook/storefront-api/internal/data"
)

func (app *application) showPermissionHandler(w http.ResponseWriter, r *http.Request) {
	permission, err := app.gorm.Permissions.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"permission": permission}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePermissionHandler(w http.ResponseWriter, r *http.Request) {
	var input data.PermissionUpdate

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Empty() {
		app.badRequestResponse(w, r, errors.New("at least one of is_register, is_usual_order or is_wholesaler_order must be provided"))
		return
	}

	permission, err := app.gorm.Permissions.Update(input)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Permission updated", envelope{"permission": permission}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
