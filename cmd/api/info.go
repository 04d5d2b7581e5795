package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/validator"
)

func (app *application) showInfoHandler(w http.ResponseWriter, r *http.Request) {
	info, err := app.gorm.Info.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"info": info}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateAboutHandler(w http.ResponseWriter, r *http.Request) {
	var input data.About

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if input.Socials == nil {
		input.Socials = map[string]string{}
	}

	v := validator.New()

	v.Check(len(input.Description) <= 10_000, "description", "must not be more than 10000 bytes long")
	for name, link := range input.Socials {
		v.Check(strings.TrimSpace(name) != "", "socials", "must not contain an empty name")
		v.Check(len(link) <= 500, "socials."+name, "must not be more than 500 bytes long")
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.gorm.Info.SaveAbout(input)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Info updated", envelope{"data": input}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ====================================================================================
// Phones
// ====================================================================================

func (app *application) listPhonesHandler(w http.ResponseWriter, r *http.Request) {
	phones, err := app.gorm.Info.GetPhones()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"phones": phones}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createPhoneHandler(w http.ResponseWriter, r *http.Request) {
	phone, ok := app.readPhone(w, r)
	if !ok {
		return
	}

	err := app.gorm.Info.InsertPhone(phone)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, "Phone created", envelope{"phone": phone}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updatePhoneHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	phone, ok := app.readPhone(w, r)
	if !ok {
		return
	}
	phone.ID = id

	err = app.gorm.Info.UpdatePhone(phone)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Phone")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Phone updated", envelope{"phone": phone}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deletePhoneHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.gorm.Info.DeletePhone(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Phone")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Phone deleted", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) readPhone(w http.ResponseWriter, r *http.Request) (*data.Phone, bool) {
	var input struct {
		Label       string `json:"label"`
		PhoneNumber string `json:"phone_number"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	phone := &data.Phone{
		Label:       strings.TrimSpace(input.Label),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
	}

	v := validator.New()

	if data.ValidatePhoneEntry(v, phone); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return nil, false
	}

	return phone, true
}

// ====================================================================================
// Maps
// ====================================================================================

func (app *application) listMapsHandler(w http.ResponseWriter, r *http.Request) {
	maps, err := app.gorm.Info.GetMaps()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"maps": maps}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createMapHandler(w http.ResponseWriter, r *http.Request) {
	mp, ok := app.readMap(w, r)
	if !ok {
		return
	}

	err := app.gorm.Info.InsertMap(mp)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, "Map created", envelope{"map": mp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateMapHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	mp, ok := app.readMap(w, r)
	if !ok {
		return
	}
	mp.ID = id

	err = app.gorm.Info.UpdateMap(mp)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Map")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Map updated", envelope{"map": mp}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteMapHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	err = app.gorm.Info.DeleteMap(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Map")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, "Map deleted", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) readMap(w http.ResponseWriter, r *http.Request) (*data.Map, bool) {
	var input struct {
		Location string `json:"location"`
		Google   string `json:"google"`
		Yandex   string `json:"yandex"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	mp := &data.Map{
		Location: strings.TrimSpace(input.Location),
		Google:   strings.TrimSpace(input.Google),
		Yandex:   strings.TrimSpace(input.Yandex),
	}

	v := validator.New()

	if data.ValidateMap(v, mp); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return nil, false
	}

	return mp, true
}
