package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farumdev/bookstore-backend/internal/infrastructure/database/dbtest"
	apihttp "github.com/farumdev/bookstore-backend/internal/interfaces/http"
	"github.com/farumdev/bookstore-backend/internal/pkg/email"
	"github.com/farumdev/bookstore-backend/internal/pkg/events"
	"github.com/farumdev/bookstore-backend/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler   http.Handler
	publisher *events.MemoryPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := dbtest.Config()
	log := logger.Discard()
	publisher := events.NewMemoryPublisher()
	srv := apihttp.NewServer(cfg, dbtest.New(t), nil, log, publisher, email.NewEmailService(cfg, log))
	return &testServer{handler: srv.Handler(), publisher: publisher}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username, password string) (string, *http.Cookie) {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/users/login", gin.H{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "AuthToken" {
			return body.Data.Token, cookie
		}
	}
	t.Fatal("login did not set the auth cookie")
	return "", nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, false, body["redis"])

	w = s.do(t, http.MethodGet, "/ready", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])
}

func TestEveryResponseCarriesRequestID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestLoginCookieAuthenticatesSession(t *testing.T) {
	s := newTestServer(t)
	_, cookie := s.login(t, "User", "qazwsxedcrfv12345")
	assert.True(t, cookie.HttpOnly)

	w := s.do(t, http.MethodGet, "/api/session", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			IsAuthenticated bool `json:"is_authenticated"`
			User            struct {
				Username string `json:"username"`
				FullName string `json:"full_name"`
			} `json:"user"`
			Stats struct {
				AddressCount int `json:"address_count"`
			} `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.IsAuthenticated)
	assert.Equal(t, "User", body.Data.User.Username)
	assert.Equal(t, "John Doe", body.Data.User.FullName)
	assert.Equal(t, 2, body.Data.Stats.AddressCount)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/users/login", gin.H{"username": "User", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid username or password.", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/users/register", gin.H{"username": "User", "password": "secret123"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already exists.", decode(t, w)["error"])
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "User2", "password2")

	w := s.do(t, http.MethodPost, "/api/users/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "AuthToken", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/cart", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/cart", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, w)["error"])
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	s := newTestServer(t)
	userToken, _ := s.login(t, "User", "qazwsxedcrfv12345")
	adminToken, _ := s.login(t, "admin", "admin123")

	for _, path := range []string{"/api/orders", "/api/users/admin/users", "/api/payments/admin/statistics", "/api/admin/reviews", "/api/coupons/admin/coupons"} {
		w := s.do(t, http.MethodGet, path, nil, userToken)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = s.do(t, http.MethodGet, path, nil, adminToken)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := s.do(t, http.MethodDelete, "/api/products/1", nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Admin access required", decode(t, w)["error"])
}

func TestErrorKindsMapToStatus(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products/999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product with ID 999 not found.", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/products/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid product ID", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", decode(t, w)["error"])

	token, _ := s.login(t, "User", "qazwsxedcrfv12345")
	w = s.do(t, http.MethodPost, "/api/cart/items", gin.H{"product_id": 6, "quantity": 4}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewRoutesNestUnderProduct(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/products/1/reviews", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/products/1/availability?quantity=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_available"])
	assert.EqualValues(t, 2, data["requested_quantity"])
}

func TestDeclinedPaymentResponse(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.login(t, "User", "qazwsxedcrfv12345")

	w := s.do(t, http.MethodPost, "/api/cart/items", gin.H{"product_id": 1, "quantity": 1}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/orders/create", nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode(t, w)["data"].(map[string]interface{})["id"]

	// card 4 ends in 1111
	w = s.do(t, http.MethodPost, "/api/payments/process", gin.H{"order_id": orderID, "payment_method_id": 4}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Payment failed: Insufficient funds", body["error"])
	assert.Equal(t, "INSUFFICIENT_FUNDS", body["failure_reason"])
	assert.Equal(t, true, body["can_retry"])
	assert.NotEmpty(t, body["transaction_id"])

	// card 3 ends in 0000
	w = s.do(t, http.MethodPost, "/api/payments/process", gin.H{"order_id": orderID, "payment_method_id": 3}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, s.publisher.Types(), events.PaymentCompleted)

	w = s.do(t, http.MethodGet, "/api/orders/pending", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])

	w = s.do(t, http.MethodGet, "/api/orders/my-orders", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestOrdersAreHiddenFromOtherCustomers(t *testing.T) {
	s := newTestServer(t)
	john, _ := s.login(t, "User", "qazwsxedcrfv12345")
	jane, _ := s.login(t, "User2", "password2")

	w := s.do(t, http.MethodPost, "/api/orders/place", gin.H{"items": []gin.H{{"product_id": 2, "quantity": 1}}}, john)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode(t, w)["data"].(map[string]interface{})["id"]
	path := "/api/orders/" + jsonNumber(orderID)

	w = s.do(t, http.MethodGet, path, nil, jane)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, path, nil, john)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, path+"/invoice/data", nil, john)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "John Doe", data["customer_name"])
}

func jsonNumber(v interface{}) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
