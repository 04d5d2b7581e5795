package main

import (
	"errors"
	"net/http"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/validator"
)

// Storefront handlers are public. A valid user token only changes the price
// tier that is shown.

func (app *application) getProductsHandler(w http.ResponseWriter, r *http.Request) {
	app.listStorefrontProducts(w, r, data.ProductFilter{})
}

func (app *application) getPopularProductsHandler(w http.ResponseWriter, r *http.Request) {
	popular := true
	app.listStorefrontProducts(w, r, data.ProductFilter{IsPopular: &popular})
}

func (app *application) getProductsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readInt64Param(r, "category_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	app.listStorefrontProducts(w, r, data.ProductFilter{CategoryID: id})
}

func (app *application) getProductsBySubcategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readInt64Param(r, "subcategory_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	app.listStorefrontProducts(w, r, data.ProductFilter{SubCategoryID: id})
}

func (app *application) searchProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := app.readString(r.URL.Query(), "q", "")

	v := validator.New()

	v.Check(len([]rune(q)) >= 2, "q", "must be at least 2 characters long")
	v.Check(len(q) <= 100, "q", "must not be more than 100 bytes long")

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	app.listStorefrontProducts(w, r, data.ProductFilter{Search: q})
}

func (app *application) listStorefrontProducts(w http.ResponseWriter, r *http.Request, filter data.ProductFilter) {
	var pagination data.Pagination

	v := validator.New()

	qs := r.URL.Query()

	pagination.Page = app.readInt(qs, "page", 1, v)
	pagination.PageSize = app.readInt(qs, "limit", 20, v)

	if data.ValidatePagination(v, pagination); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	products, metadata, err := app.gorm.Products.GetAPI(filter, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	user := app.contextGetUser(r)

	env := envelope{
		"products":   app.storefront.Products(products, user.UserType() == "wholesale"),
		"pagination": data.NewStorefrontPagination(pagination.Page, pagination.PageSize, metadata.TotalRecords),
		"user_type":  user.UserType(),
	}

	err = app.writeJSON(w, http.StatusOK, "", env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getProductDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product, err := app.gorm.Products.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Product")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	user := app.contextGetUser(r)

	env := envelope{
		"product":   app.storefront.Product(product, user.UserType() == "wholesale", true),
		"user_type": user.UserType(),
	}

	err = app.writeJSON(w, http.StatusOK, "", env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) getInfoHandler(w http.ResponseWriter, r *http.Request) {
	info, err := app.gorm.Info.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	currency, err := app.models.Currency.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"info": info, "currency": currency}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
