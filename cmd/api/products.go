package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/push"
	"github.com/hilook/storefront-api/internal/s3"
	"github.com/hilook/storefront-api/internal/validator"
)

// ====================================================================================
// Backoffice Handlers
// ====================================================================================

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	var (
		filter     data.ProductFilter
		pagination data.Pagination
		sort       data.Sort
	)

	v := validator.New()

	qs := r.URL.Query()

	filter.CategoryID = app.readInt64(qs, "category_id", v)
	filter.SubCategoryID = app.readInt64(qs, "sub_category_id", v)
	filter.Name = app.readString(qs, "name", "")
	filter.IsPopular = app.readBool(qs, "is_popular", v)
	pagination.Page = app.readInt(qs, "page", 1, v)
	pagination.PageSize = app.readInt(qs, "limit", 20, v)

	if s := app.readString(qs, "sort", ""); s != "" {
		sort.List = strings.Split(s, ",")
	}
	sort.SortSafeList = []string{"id", "name", "first_price", "second_price", "created_at", "-id", "-name", "-first_price", "-second_price", "-created_at"}

	data.ValidateSort(v, sort)
	v.Check(validator.Unique(sort.List), "sort", "must not contain duplicate values")

	if data.ValidatePagination(v, pagination); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	products, metadata, err := app.gorm.Products.GetAll(filter, sort, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	env := envelope{
		"items": products,
		"total": metadata.TotalRecords,
		"page":  pagination.Page,
		"limit": pagination.PageSize,
	}

	err = app.writeJSON(w, http.StatusOK, "", env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) showProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
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

	err = app.writeJSON(w, http.StatusOK, "", envelope{"item": product}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	product := &data.Product{IsAvailable: true}

	v := validator.New()

	readProductForm(r, product, v)

	// Both images are required; hold their slots until the upload succeeds.
	thumb, thumbHeader, err := app.readImage(r, "thumb_image")
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}
	if thumb != nil {
		defer thumb.Close()
		product.ThumbImagePath = "pending"
	}

	detail, detailHeader, err := app.readImage(r, "detail_image")
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}
	if detail != nil {
		defer detail.Close()
		product.DetailImagePath = "pending"
	}

	if data.ValidateProduct(v, product); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if !app.subcategoryMatches(w, r, product) {
		return
	}

	product.ThumbImagePath, err = app.saveUpload(r.Context(), thumb, thumbHeader, s3.PRODUCT)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	product.DetailImagePath, err = app.saveUpload(r.Context(), detail, detailHeader, s3.PRODUCT)
	if err != nil {
		app.removeUpload(product.ThumbImagePath)
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.gorm.Products.Insert(product)
	if err != nil {
		app.removeUpload(product.ThumbImagePath)
		app.removeUpload(product.DetailImagePath)
		app.serverErrorResponse(w, r, err)
		return
	}

	app.notifyAll(push.Message{
		Title: "New product",
		Body:  product.Name,
		Image: data.VersionedURL(app.storefront.BaseURL, product.ThumbImagePath, product.UpdatedAt),
		Data:  map[string]string{"type": "product_created", "product_id": strconv.FormatInt(product.ID, 10)},
	})

	err = app.writeJSON(w, http.StatusCreated, "Product created", envelope{"item": product}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
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

	if err := app.parseForm(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	readProductForm(r, product, v)

	if data.ValidateProduct(v, product); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	if !app.subcategoryMatches(w, r, product) {
		return
	}

	oldThumb, oldDetail := product.ThumbImagePath, product.DetailImagePath

	thumbRef, err := app.uploadImage(r, "thumb_image", s3.PRODUCT)
	if err != nil {
		app.uploadErrorResponse(w, r, err)
		return
	}

	detailRef, err := app.uploadImage(r, "detail_image", s3.PRODUCT)
	if err != nil {
		app.removeUpload(thumbRef)
		app.uploadErrorResponse(w, r, err)
		return
	}

	if thumbRef != "" {
		product.ThumbImagePath = thumbRef
	}
	if detailRef != "" {
		product.DetailImagePath = detailRef
	}

	err = app.gorm.Products.Update(product)
	if err != nil {
		app.removeUpload(thumbRef)
		app.removeUpload(detailRef)
		app.serverErrorResponse(w, r, err)
		return
	}

	if thumbRef != "" {
		app.removeUpload(oldThumb)
	}
	if detailRef != "" {
		app.removeUpload(oldDetail)
	}

	err = app.writeJSON(w, http.StatusOK, "Product updated", envelope{"item": product}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
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

	err = app.gorm.Products.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.recordNotFoundResponse(w, r, "Product")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	app.removeUpload(product.ThumbImagePath)
	app.removeUpload(product.DetailImagePath)

	err = app.writeJSON(w, http.StatusOK, "Product deleted", nil, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// readProductForm copies the form fields that are present onto product.
func readProductForm(r *http.Request, product *data.Product, v *validator.Validator) {
	if name, ok := formValue(r, "name"); ok {
		product.Name = strings.TrimSpace(name)
	}
	if description, ok := formValue(r, "description"); ok {
		product.Description = description
	}

	for key, dst := range map[string]*int64{
		"category_id":     &product.CategoryID,
		"sub_category_id": &product.SubCategoryID,
	} {
		if raw, ok := formValue(r, key); ok {
			id, err := strconv.ParseInt(raw, 10, 64)
			v.Check(err == nil, key, "must be an integer value")
			*dst = id
		}
	}

	for key, dst := range map[string]*decimal.Decimal{
		"first_price":     &product.FirstPrice,
		"discount1_price": &product.Discount1Price,
		"second_price":    &product.SecondPrice,
		"discount2_price": &product.Discount2Price,
	} {
		if raw, ok := formValue(r, key); ok {
			price, err := decimal.NewFromString(strings.TrimSpace(raw))
			v.Check(err == nil, key, "must be a decimal number")
			*dst = price
		}
	}

	for key, dst := range map[string]*bool{
		"is_popular":   &product.IsPopular,
		"is_available": &product.IsAvailable,
	} {
		if raw, ok := formValue(r, key); ok {
			b, err := strconv.ParseBool(raw)
			v.Check(err == nil, key, "must be a boolean value")
			*dst = b
		}
	}
}

// formValue reports whether key was sent at all, unlike r.FormValue.
func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.Form[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// subcategoryMatches answers 400 and returns false unless the product's
// subcategory exists and belongs to its category.
func (app *application) subcategoryMatches(w http.ResponseWriter, r *http.Request, product *data.Product) bool {
	subcategory, err := app.gorm.Subcategories.Get(product.SubCategoryID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.failedValidationResponse(w, r, map[string]string{"sub_category_id": "subcategory does not exist"})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return false
	}

	if subcategory.CategoryID != product.CategoryID {
		app.failedValidationResponse(w, r, map[string]string{"sub_category_id": "subcategory does not belong to the category"})
		return false
	}

	return true
}
