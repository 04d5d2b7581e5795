package main

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hilook/storefront-api/internal/disk"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundResponse)

	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	// ====================================================================================
	// API - Storefront Routes
	// ====================================================================================

	router.HandlerFunc(http.MethodGet, "/api/user-data/categories", app.getCategoriesHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/subcategories", app.getSubcategoriesHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/banners", app.getBannersHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/info", app.getInfoHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/currency", app.showCurrencyHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/products", app.getProductsHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/popular-products", app.getPopularProductsHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/products/:category_id", app.getProductsByCategoryHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/subcategory/:subcategory_id", app.getProductsBySubcategoryHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/search", app.searchProductsHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-data/product-detail/:id", app.getProductDetailHandler)

	// User accounts
	router.HandlerFunc(http.MethodPost, "/api/user-auth/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/api/user-auth/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodGet, "/api/user-auth/profile", app.requireAuthenticatedUser(app.showProfileHandler))

	// Orders
	router.HandlerFunc(http.MethodPost, "/api/orders", app.requireAuthenticatedUser(app.createOrdersHandler))
	router.HandlerFunc(http.MethodGet, "/api/orders/order-history/:user_id", app.requireAuthenticatedUser(app.orderHistoryHandler))

	// Push
	router.HandlerFunc(http.MethodPost, "/api/push/register", app.registerPushTokenHandler)

	// Currency
	router.HandlerFunc(http.MethodGet, "/api/currency", app.showCurrencyHandler)

	// ====================================================================================
	// CMS - Backoffice Routes
	// ====================================================================================

	// Admin account
	router.HandlerFunc(http.MethodPost, "/api/auth/admin-login", app.adminLoginHandler)
	router.HandlerFunc(http.MethodPut, "/api/auth/admin-update", app.requireAuthenticatedAdmin(app.adminUpdateHandler))

	// Banners
	router.HandlerFunc(http.MethodGet, "/api/banners", app.requireAuthenticatedAdmin(app.listBannersHandler))
	router.HandlerFunc(http.MethodGet, "/api/banners/suggest-priority", app.requireAuthenticatedAdmin(app.suggestBannerPriorityHandler))
	router.HandlerFunc(http.MethodPost, "/api/banners", app.requireAuthenticatedAdmin(app.createBannerHandler))
	router.HandlerFunc(http.MethodPut, "/api/banners/:id", app.requireAuthenticatedAdmin(app.updateBannerHandler))
	router.HandlerFunc(http.MethodDelete, "/api/banners/:id", app.requireAuthenticatedAdmin(app.deleteBannerHandler))

	// Categories
	router.HandlerFunc(http.MethodGet, "/api/categories", app.requireAuthenticatedAdmin(app.listCategoriesHandler))
	router.HandlerFunc(http.MethodGet, "/api/categories/:id", app.requireAuthenticatedAdmin(app.showCategoryHandler))
	router.HandlerFunc(http.MethodPost, "/api/categories", app.requireAuthenticatedAdmin(app.createCategoryHandler))
	router.HandlerFunc(http.MethodPut, "/api/categories/:id", app.requireAuthenticatedAdmin(app.updateCategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/api/categories/:id", app.requireAuthenticatedAdmin(app.deleteCategoryHandler))

	// Subcategories
	router.HandlerFunc(http.MethodGet, "/api/sub-categories", app.requireAuthenticatedAdmin(app.listSubcategoriesHandler))
	router.HandlerFunc(http.MethodGet, "/api/sub-categories/:id", app.requireAuthenticatedAdmin(app.showSubcategoryHandler))
	router.HandlerFunc(http.MethodPost, "/api/sub-categories", app.requireAuthenticatedAdmin(app.createSubcategoryHandler))
	router.HandlerFunc(http.MethodPut, "/api/sub-categories/:id", app.requireAuthenticatedAdmin(app.updateSubcategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/api/sub-categories/:id", app.requireAuthenticatedAdmin(app.deleteSubcategoryHandler))

	// Products
	router.HandlerFunc(http.MethodGet, "/api/products", app.requireAuthenticatedAdmin(app.listProductsHandler))
	router.HandlerFunc(http.MethodGet, "/api/products/:id", app.requireAuthenticatedAdmin(app.showProductHandler))
	router.HandlerFunc(http.MethodPost, "/api/products", app.requireAuthenticatedAdmin(app.createProductHandler))
	router.HandlerFunc(http.MethodPut, "/api/products/:id", app.requireAuthenticatedAdmin(app.updateProductHandler))
	router.HandlerFunc(http.MethodDelete, "/api/products/:id", app.requireAuthenticatedAdmin(app.deleteProductHandler))

	// Users
	router.HandlerFunc(http.MethodGet, "/api/users", app.requireAuthenticatedAdmin(app.listUsersHandler))
	router.HandlerFunc(http.MethodPost, "/api/users", app.requireAuthenticatedAdmin(app.createUserHandler))
	router.HandlerFunc(http.MethodPut, "/api/users/:id", app.requireAuthenticatedAdmin(app.updateUserHandler))
	router.HandlerFunc(http.MethodPatch, "/api/users/:id/wholesaler", app.requireAuthenticatedAdmin(app.toggleWholesalerHandler))
	router.HandlerFunc(http.MethodDelete, "/api/users/:id", app.requireAuthenticatedAdmin(app.deleteUserHandler))

	// Orders
	router.HandlerFunc(http.MethodGet, "/api/orders/admin/all", app.requireAuthenticatedAdmin(app.listOrdersHandler))

	// Permissions
	router.HandlerFunc(http.MethodGet, "/api/permission", app.requireAuthenticatedAdmin(app.showPermissionHandler))
	router.HandlerFunc(http.MethodPut, "/api/permission", app.requireAuthenticatedAdmin(app.updatePermissionHandler))

	// Currency
	router.HandlerFunc(http.MethodPut, "/api/currency", app.requireAuthenticatedAdmin(app.updateCurrencyHandler))

	// Site info
	router.HandlerFunc(http.MethodGet, "/api/info", app.showInfoHandler)
	router.HandlerFunc(http.MethodPut, "/api/info/data", app.requireAuthenticatedAdmin(app.updateAboutHandler))
	router.HandlerFunc(http.MethodGet, "/api/info/phones", app.requireAuthenticatedAdmin(app.listPhonesHandler))
	router.HandlerFunc(http.MethodPost, "/api/info/phones", app.requireAuthenticatedAdmin(app.createPhoneHandler))
	router.HandlerFunc(http.MethodPut, "/api/info/phones/:id", app.requireAuthenticatedAdmin(app.updatePhoneHandler))
	router.HandlerFunc(http.MethodDelete, "/api/info/phones/:id", app.requireAuthenticatedAdmin(app.deletePhoneHandler))
	router.HandlerFunc(http.MethodGet, "/api/info/maps", app.requireAuthenticatedAdmin(app.listMapsHandler))
	router.HandlerFunc(http.MethodPost, "/api/info/maps", app.requireAuthenticatedAdmin(app.createMapHandler))
	router.HandlerFunc(http.MethodPut, "/api/info/maps/:id", app.requireAuthenticatedAdmin(app.updateMapHandler))
	router.HandlerFunc(http.MethodDelete, "/api/info/maps/:id", app.requireAuthenticatedAdmin(app.deleteMapHandler))

	// Push
	router.HandlerFunc(http.MethodPost, "/api/push/send", app.requireAuthenticatedAdmin(app.sendPushHandler))

	// ====================================================================================
	// Miscellaneous Routes
	// ====================================================================================

	router.HandlerFunc(http.MethodGet, "/health", app.healthcheckHandler)
	router.Handler(http.MethodGet, "/debug/vars", expvar.Handler())
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	if d, ok := app.files.(*disk.Disk); ok {
		router.ServeFiles(disk.PublicPrefix+"*filepath", http.Dir(d.Root()))
	}

	return app.metrics(app.recoverPanic(app.enableCORS(app.rateLimit(app.authenticate(router)))))
}
