package routes

import (
	"net/http"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/utils"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Controllers groups every HTTP handler set the router serves.
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Orders   *controllers.OrderController
}

// NewRouter builds the full handler chain: access log with request id and
// panic recovery, client ip, identity, then the routes. The chain wraps the
// router itself so unmatched requests are logged too.
func NewRouter(logger zerolog.Logger, auth *middleware.Authenticator, c Controllers) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, r, utils.NotFound("route not found"))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})

	RegisterRoutes(router, c)

	var handler http.Handler = router
	handler = auth.Authenticate(handler)
	handler = chimiddleware.RealIP(handler)
	return middleware.LoggerMiddleware(logger)(handler)
}

func authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}

func adminOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireAdmin(h)
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Public routes
	router.HandleFunc("/auth/register", c.Users.Register).Methods(http.MethodPost)
	router.HandleFunc("/auth/login", c.Users.Login).Methods(http.MethodPost)
	router.HandleFunc("/auth/verify", c.Users.VerifyEmail).Methods(http.MethodGet)

	// Profile routes
	router.Handle("/profile", authed(c.Users.GetProfile)).Methods(http.MethodGet)
	router.Handle("/profile", authed(c.Users.UpdateProfile)).Methods(http.MethodPut)

	// Product routes
	router.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	router.Handle("/products", adminOnly(c.Products.CreateProduct)).Methods(http.MethodPost)
	router.Handle("/products/{id}", adminOnly(c.Products.UpdateProduct)).Methods(http.MethodPut)
	router.Handle("/products/{id}", adminOnly(c.Products.DeleteProduct)).Methods(http.MethodDelete)

	// Cart routes
	router.Handle("/cart", authed(c.Carts.AddToCart)).Methods(http.MethodPost)
	router.Handle("/cart/{userId}", authed(c.Carts.GetCart)).Methods(http.MethodGet)
	router.Handle("/cart/{cartId}", authed(c.Carts.UpdateCartItem)).Methods(http.MethodPut)
	router.Handle("/cart/{cartId}", authed(c.Carts.RemoveFromCart)).Methods(http.MethodDelete)

	// Order routes
	router.Handle("/orders", authed(c.Orders.CreateOrder)).Methods(http.MethodPost)
	router.Handle("/orders", authed(c.Orders.GetOrders)).Methods(http.MethodGet)
	router.Handle("/orders/{orderId}/payment", authed(c.Orders.SubmitPayment)).Methods(http.MethodPut)

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/orders", c.Orders.ListAllOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{orderId}", c.Orders.UpdateOrderStatus).Methods(http.MethodPut)
	admin.HandleFunc("/stats", c.Orders.GetOrderStats).Methods(http.MethodGet)
}
