package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/services"
	"go-storefront/store/memory"
	"go-storefront/utils"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// mailbox keeps every message the auth service sends.
type mailbox struct {
	mu   sync.Mutex
	sent []utils.EmailMessage
}

func (m *mailbox) SendEmail(_ context.Context, msg utils.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// link returns the verification link most recently mailed to email.
func (m *mailbox) link(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To != email {
			continue
		}
		for _, line := range strings.Split(m.sent[i].Text, "\n") {
			if strings.HasPrefix(line, "http") {
				return line
			}
		}
	}
	return ""
}

type RouterSuite struct {
	suite.Suite
	router     http.Handler
	mail       *mailbox
	logs       *bytes.Buffer
	userToken  string
	userID     string
	adminToken string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	st := memory.New()
	tokens, err := utils.NewTokenMaker("routes-secret", time.Hour)
	require.NoError(s.T(), err)
	gate := services.NewAdminGate([]string{"admin@mystore.com", "ops@mystore.com"})
	s.mail = &mailbox{}
	s.logs = &bytes.Buffer{}
	logger := zerolog.New(s.logs)
	timeout := 5 * time.Second

	auth := services.NewAuthService(st, st, tokens, gate, s.mail, "http://localhost:8000/auth/verify")
	s.router = NewRouter(logger, middleware.NewAuthenticator(tokens, gate), Controllers{
		Users:    controllers.NewUserController(auth, services.NewProfileService(st), timeout),
		Products: controllers.NewProductController(services.NewCatalogService(st), timeout),
		Carts:    controllers.NewCartController(services.NewCartService(st, st), timeout),
		Orders:   controllers.NewOrderController(services.NewOrderService(st, st, nil, logger), timeout),
	})

	s.userID, s.userToken = s.signUp("shopper@example.com")
	s.signUp("Admin@MyStore.com")
	s.verify("admin@mystore.com")
	_, s.adminToken, _ = s.login("Admin@MyStore.com")
}

func (s *RouterSuite) signUp(email string) (string, string) {
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())
	uid, token, _ := s.login(email)
	return uid, token
}

func (s *RouterSuite) login(email string) (uid, token, role string) {
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())
	var session struct {
		Token string `json:"token"`
		User  struct {
			UID  string `json:"uid"`
			Role string `json:"role"`
		} `json:"user"`
	}
	s.decode(rec, &session)
	return session.User.UID, session.Token, session.User.Role
}

// verify follows the link mailed at registration.
func (s *RouterSuite) verify(email string) {
	link := s.mail.link(email)
	require.NotEmpty(s.T(), link, "no verification mail for %s", email)
	u, err := url.Parse(link)
	require.NoError(s.T(), err)
	require.Equal(s.T(), "/auth/verify", u.Path)

	rec := s.do(http.MethodGet, u.RequestURI(), "", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, v any) {
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *RouterSuite) createProduct(name string, price int) string {
	rec := s.do(http.MethodPost, "/products", s.adminToken, map[string]any{"name": name, "price": price, "image": name + ".jpg"})
	require.Equal(s.T(), http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	s.decode(rec, &created)
	s.Equal("Product added", created.Message)
	return created.ID
}

func validOrder(userID string, total int) map[string]any {
	return map[string]any{
		"userId":       userID,
		"items":        []map[string]any{{"name": "P", "price": 100, "quantity": 2}},
		"totalAmount":  total,
		"paymentTxnId": "PENDING_REF",
		"address":      map[string]string{"name": "Asha", "address": "12 MG Road", "city": "Pune", "pincode": "411001"},
	}
}

func (s *RouterSuite) TestEndToEndOrderFlow() {
	productID := s.createProduct("P", 100)

	rec := s.do(http.MethodPost, "/cart", s.userToken, map[string]any{
		"userId":  s.userID,
		"product": map[string]any{"id": productID, "quantity": 2},
	})
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/cart/"+s.userID, s.userToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	var cart struct {
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
		Subtotal float64 `json:"subtotal"`
	}
	s.decode(rec, &cart)
	s.Require().Len(cart.Items, 1)
	s.Equal(2, cart.Items[0].Quantity)
	s.Equal(float64(200), cart.Subtotal)

	rec = s.do(http.MethodPost, "/orders", s.userToken, validOrder(s.userID, 200))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		Message string `json:"message"`
		OrderID string `json:"orderId"`
	}
	s.decode(rec, &placed)
	s.Equal("Order placed", placed.Message)
	s.NotEmpty(placed.OrderID)

	rec = s.do(http.MethodGet, "/cart/"+s.userID, s.userToken, nil)
	s.JSONEq(`{"items":[],"subtotal":0,"count":0}`, rec.Body.String())

	rec = s.do(http.MethodPut, "/orders/"+placed.OrderID+"/payment", s.userToken, map[string]string{"paymentTxnId": "UPI_123"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var submitted struct {
		Order struct {
			Status             string  `json:"status"`
			PaymentTxnID       string  `json:"paymentTxnId"`
			PaymentSubmittedAt *string `json:"paymentSubmittedAt"`
		} `json:"order"`
	}
	s.decode(rec, &submitted)
	s.Equal("PAYMENT_SUBMITTED", submitted.Order.Status)
	s.Equal("UPI_123", submitted.Order.PaymentTxnID)
	s.NotNil(submitted.Order.PaymentSubmittedAt)

	rec = s.do(http.MethodPut, "/admin/orders/"+placed.OrderID, s.adminToken, map[string]string{"status": "PAID"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/orders?userId="+s.userID, s.userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var orders []struct {
		ID          string  `json:"id"`
		Status      string  `json:"status"`
		TotalAmount float64 `json:"totalAmount"`
		CreatedAt   string  `json:"createdAt"`
	}
	s.decode(rec, &orders)
	s.Require().Len(orders, 1)
	s.Equal("PAID", orders[0].Status)
	s.Equal(float64(200), orders[0].TotalAmount)
	_, err := time.Parse(time.RFC3339, orders[0].CreatedAt)
	s.NoError(err)

	rec = s.do(http.MethodGet, "/admin/stats", s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats struct {
		TotalOrders  int            `json:"totalOrders"`
		TotalRevenue float64        `json:"totalRevenue"`
		ByStatus     map[string]int `json:"byStatus"`
	}
	s.decode(rec, &stats)
	s.Equal(1, stats.TotalOrders)
	s.Equal(float64(200), stats.TotalRevenue)
	s.Equal(1, stats.ByStatus["PAID"])
}

func (s *RouterSuite) TestAddingTwiceMergesRows() {
	productID := s.createProduct("mug", 50)
	body := func(qty int) map[string]any {
		return map[string]any{"userId": s.userID, "product": map[string]any{"id": productID, "quantity": qty}}
	}

	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/cart", s.userToken, body(1)).Code)
	rec := s.do(http.MethodPost, "/cart", s.userToken, body(2))
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"message":"Cart quantity updated"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/cart/"+s.userID, s.userToken, nil)
	var cart struct {
		Items []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		Count int `json:"count"`
	}
	s.decode(rec, &cart)
	s.Require().Len(cart.Items, 1)
	s.Equal(3, cart.Items[0].Quantity)

	rec = s.do(http.MethodPut, "/cart/"+cart.Items[0].ID, s.userToken, map[string]int{"quantity": 0})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/cart/"+cart.Items[0].ID, s.userToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/cart/"+cart.Items[0].ID, s.userToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestInvalidOrdersAreRejected() {
	for _, field := range []string{"userId", "items", "totalAmount", "paymentTxnId", "address"} {
		order := validOrder(s.userID, 200)
		delete(order, field)
		rec := s.do(http.MethodPost, "/orders", s.userToken, order)
		s.Equal(http.StatusBadRequest, rec.Code, field)
	}
	for _, field := range []string{"name", "address", "city", "pincode"} {
		order := validOrder(s.userID, 200)
		delete(order["address"].(map[string]string), field)
		rec := s.do(http.MethodPost, "/orders", s.userToken, order)
		s.Equal(http.StatusBadRequest, rec.Code, "address."+field)
	}

	rec := s.do(http.MethodGet, "/admin/orders", s.adminToken, nil)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *RouterSuite) TestOrdersAreNewestFirst() {
	var ids []string
	for i := 0; i < 3; i++ {
		rec := s.do(http.MethodPost, "/orders", s.userToken, validOrder(s.userID, 100+i))
		s.Require().Equal(http.StatusCreated, rec.Code)
		var placed struct {
			OrderID string `json:"orderId"`
		}
		s.decode(rec, &placed)
		ids = append(ids, placed.OrderID)
	}

	rec := s.do(http.MethodGet, "/orders?userId="+s.userID, s.userToken, nil)
	var orders []struct {
		ID string `json:"id"`
	}
	s.decode(rec, &orders)
	s.Require().Len(orders, 3)
	s.Equal([]string{ids[2], ids[1], ids[0]}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
}

func (s *RouterSuite) TestAdminGate() {
	rec := s.do(http.MethodGet, "/admin/orders?email=admin@mystore.com", s.userToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.JSONEq(`{"error":"not authorized"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/admin/orders", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/admin/orders", s.adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/orders?status=BOGUS", s.adminToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/products", s.userToken, map[string]any{"name": "x", "price": 1, "image": "x"})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestOwnership() {
	otherID, otherToken := s.signUp("other@example.com")

	rec := s.do(http.MethodGet, "/cart/"+s.userID, otherToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/orders?userId="+s.userID, otherToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodGet, "/orders?userId="+otherID, s.adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/cart/"+s.userID, "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestProductLifecycle() {
	id := s.createProduct("lamp", 900)

	rec := s.do(http.MethodGet, "/products/"+id, "", nil)
	s.Equal(http.StatusOK, rec.Code)
	var product struct {
		Category    string `json:"category"`
		Featured    bool   `json:"featured"`
		Description string `json:"description"`
	}
	s.decode(rec, &product)
	s.Equal("General", product.Category)

	rec = s.do(http.MethodPut, "/products/"+id, s.adminToken, map[string]any{"featured": true})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/products?featured=true", "", nil)
	var featured []map[string]any
	s.decode(rec, &featured)
	s.Len(featured, 1)

	rec = s.do(http.MethodGet, "/products?featured=maybe", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/products/"+id, s.adminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/products/"+id, s.adminToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/products/not-hex", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestProfileAndHealth() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))

	rec = s.do(http.MethodPut, "/profile", s.userToken, map[string]string{"city": "Pune"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var profile struct {
		Email string `json:"email"`
		City  string `json:"city"`
	}
	s.decode(rec, &profile)
	s.Equal("shopper@example.com", profile.Email)
	s.Equal("Pune", profile.City)

	rec = s.do(http.MethodGet, "/profile", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/nowhere", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestDuplicateRegistration() {
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "SHOPPER@example.com", "password": "secret1"})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "shopper@example.com", "password": "nope-nope"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestUnverifiedAllowListedEmailIsNotAdmin() {
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "ops@mystore.com", "password": "secret1"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var registered struct {
		EmailVerified bool `json:"emailVerified"`
	}
	s.decode(rec, &registered)
	s.False(registered.EmailVerified)

	_, token, role := s.login("ops@mystore.com")
	s.Equal("user", role)
	rec = s.do(http.MethodGet, "/admin/orders", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPost, "/products", token, map[string]any{"name": "x", "price": 1, "image": "x"})
	s.Equal(http.StatusForbidden, rec.Code)

	s.verify("ops@mystore.com")

	// The old session keeps its claims; a fresh login picks up the change.
	rec = s.do(http.MethodGet, "/admin/orders", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	_, token, role = s.login("ops@mystore.com")
	s.Equal("admin", role)
	rec = s.do(http.MethodGet, "/admin/orders", token, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestVerifyRejectsBadTokens() {
	rec := s.do(http.MethodGet, "/auth/verify", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/auth/verify?token=garbage", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	// A session token is not a verification token.
	rec = s.do(http.MethodGet, "/auth/verify?token="+url.QueryEscape(s.userToken), "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	// Verifying twice is harmless.
	s.verify("admin@mystore.com")
}

func (s *RouterSuite) TestUnmatchedRequestsAreLogged() {
	s.logs.Reset()

	rec := s.do(http.MethodGet, "/nowhere", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.NotEmpty(rec.Header().Get(middleware.RequestIDHeader))
	rec = s.do(http.MethodDelete, "/healthz", s.userToken, nil)
	s.Equal(http.StatusMethodNotAllowed, rec.Code)

	var entries []map[string]any
	scanner := bufio.NewScanner(s.logs)
	for scanner.Scan() {
		var entry map[string]any
		s.Require().NoError(json.Unmarshal(scanner.Bytes(), &entry), scanner.Text())
		if entry["message"] == "request completed" {
			entries = append(entries, entry)
		}
	}
	s.Require().Len(entries, 2)

	s.Equal("/nowhere", entries[0]["url"])
	s.Equal(float64(http.StatusNotFound), entries[0]["status"])
	s.Equal("anonymous", entries[0]["uid"])
	s.NotEmpty(entries[0]["request_id"])

	s.Equal("/healthz", entries[1]["url"])
	s.Equal(float64(http.StatusMethodNotAllowed), entries[1]["status"])
	s.Equal(s.userID, entries[1]["uid"])
}
