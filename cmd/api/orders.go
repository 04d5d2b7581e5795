package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hilook/storefront-api/internal/data"
	"github.com/hilook/storefront-api/internal/metrics"
	"github.com/hilook/storefront-api/internal/validator"
)

const idempotencyKeyTTL = 24 * time.Hour

// ====================================================================================
// Backoffice Handlers
// ====================================================================================

func (app *application) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	var (
		filter     data.OrderFilter
		pagination data.Pagination
	)

	v := validator.New()

	qs := r.URL.Query()

	filter.UserID = app.readInt64(qs, "user_id", v)
	filter.StartDate = app.readString(qs, "start_date", "")
	filter.EndDate = app.readString(qs, "end_date", "")
	filter.WholesalerOnly = app.readString(qs, "wholesaler_only", "") == "true"
	filter.Export = app.readString(qs, "export", "") == "true"

	pagination.Page = app.readInt(qs, "page", 1, v)
	pagination.PageSize = app.readInt(qs, "limit", 20, v)

	data.ValidateOrderFilter(v, filter)

	if data.ValidatePagination(v, pagination); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	orders, metadata, err := app.models.Orders.GetAll(r.Context(), filter, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"orders": orders, "metadata": metadata}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ====================================================================================
// Business Handlers
// ====================================================================================

func (app *application) createOrdersHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Orders []*data.Order `json:"orders"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	if data.ValidateOrders(v, input.Orders); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	// The token may predate a wholesaler change, so the stored account decides.
	user, err := app.models.Users.Get(app.contextGetUser(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.authenticationRequiredResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	permission, err := app.gorm.Permissions.Get()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !permission.CanOrder(user.IsWholesaler) {
		app.forbiddenResponse(w, r, "ordering is currently disabled for your account type")
		return
	}

	var claimKey string
	if key := r.Header.Get("Idempotency-Key"); key != "" && app.redis != nil {
		claimKey = orderIdempotencyKey(user.ID, key)

		claimed, err := app.redis.ClaimIdempotencyKey(r.Context(), claimKey, idempotencyKeyTTL)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		if !claimed {
			app.conflictResponse(w, r, "duplicate order submission")
			return
		}
	}

	batchID, err := app.models.Orders.InsertBatch(r.Context(), user.ID, input.Orders)
	if err != nil {
		if claimKey != "" {
			if rerr := app.redis.ReleaseIdempotencyKey(r.Context(), claimKey); rerr != nil {
				app.logger.Warn("release idempotency key", zap.String("key", claimKey), zap.Error(rerr))
			}
		}

		switch {
		case errors.Is(err, data.ErrUnknownProduct):
			app.failedValidationResponse(w, r, map[string]string{"product_id": err.Error()})
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	metrics.OrdersCreatedTotal.WithLabelValues(user.UserType()).Inc()

	app.notifyOrderPlaced(user, batchID, input.Orders)

	err = app.writeJSON(w, http.StatusCreated, "Orders created", envelope{"orders": input.Orders, "batch_id": batchID}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// orderIdempotencyKey scopes a client supplied key to one buyer.
func orderIdempotencyKey(userID int64, key string) string {
	return fmt.Sprintf("order:%d:%s", userID, key)
}

// notifyOrderPlaced mails the configured shop address in the background.
func (app *application) notifyOrderPlaced(user *data.User, batchID uuid.UUID, orders []*data.Order) {
	recipient := app.config.smtp.notify
	if recipient == "" {
		return
	}

	type item struct {
		ProductID int64
		Quantity  int
		Price     string
	}

	items := make([]item, 0, len(orders))
	total := decimal.Zero

	for _, o := range orders {
		items = append(items, item{ProductID: o.ProductID, Quantity: o.Quantity, Price: o.Price.StringFixed(2)})
		total = total.Add(o.Price.Mul(decimal.NewFromInt(int64(o.Quantity))))
	}

	mail := map[string]interface{}{
		"BatchID":  batchID.String(),
		"UserName": user.Name,
		"Phone":    user.Phone,
		"UserType": user.UserType(),
		"Items":    items,
		"Total":    total.StringFixed(2),
	}

	app.background(func() {
		err := app.mailer.Send(recipient, "order_placed.tmpl", mail)
		if err != nil {
			app.logger.Error("send order notification", zap.String("batch_id", batchID.String()), zap.Error(err))
		}
	})
}

func (app *application) orderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := app.readInt64Param(r, "user_id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if userID != app.contextGetUser(r).ID {
		app.forbiddenResponse(w, r, "you can only view your own order history")
		return
	}

	history, err := app.models.Orders.GetHistory(r.Context(), userID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, "", envelope{"history": history}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
