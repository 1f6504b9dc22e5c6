package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/domain"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	middleware "github.com/Skotchmaster/shop_orders/pkg/middleware/auth"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testSecret = []byte("http-secret")

type testEnv struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "shop.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))

	r := &repo.GormRepo{DB: db}
	e := echo.New()
	Register(e, &Deps{
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r}},
		OrderHandler:   &OrderHTTP{Svc: &service.OrderService{Repo: r}},
		AuthHandler: &AuthHTTP{Svc: &service.AuthService{
			Repo:        r,
			JWTSecret:   testSecret,
			AccessTTL:   time.Hour,
			AdminEmails: []string{"admin@shop.test"},
		}},
		JWTSecret: testSecret,
		DB:        db,
	})
	return &testEnv{e: e, repo: r}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// signup registers and logs in a user, returning the bearer token.
func (env *testEnv) signup(t *testing.T, username, email string) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/auth/signup", transport.SignupRequest{
		Username: username, Email: email, Password: "secret-pw",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Email: email, Password: "secret-pw"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (env *testEnv) product(t *testing.T, name string, availability int, price string) uuid.UUID {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.RequireFromString(price), Availability: availability}
	require.NoError(t, env.repo.DB.Create(p).Error)
	return p.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil, "").Code)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice", "alice@example.com")

	rec := env.do(t, http.MethodGet, "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[transport.UserResponse](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "user", me.Role)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/auth/me", nil, "").Code)

	rec = env.do(t, http.MethodPost, "/auth/signup", transport.SignupRequest{
		Username: "alice2", Email: "alice@example.com", Password: "x",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Email: "alice@example.com", Password: "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "bob", "bob@example.com")

	rec := env.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Email: "bob@example.com", Password: "secret-pw"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.AccessCookie {
			found = true
			assert.NotEmpty(t, ck.Value)
			assert.True(t, ck.HttpOnly)
			assert.False(t, ck.Secure, "plain-HTTP test server")
		}
	}
	assert.True(t, found)
}

func TestCreateProduct_AdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t, "root", "admin@shop.test")
	user := env.signup(t, "carol", "carol@example.com")

	body := map[string]any{"name": "kettle", "category": "kitchen", "price": "39.99", "availability": 5}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/products", body, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/products", body, user).Code)

	rec := env.do(t, http.MethodPost, "/products", body, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)
	assert.Equal(t, "kettle", created.Name)

	rec = env.do(t, http.MethodGet, "/products/"+created.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/products", map[string]any{"name": "free", "price": "0"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/products/not-a-uuid", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/products/"+uuid.NewString(), nil, "").Code)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "b", 1, "1.00")
	env.product(t, "a", 2, "1.00")
	env.product(t, "gone", 0, "1.00")

	rec := env.do(t, http.MethodGet, "/products?page=1&size=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Meta.Total)
	assert.True(t, resp.Meta.HasNext)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "a", resp.Data[0].Name)
}

func TestSearchWithoutIndex(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/products/search", nil, "").Code)
	assert.Equal(t, http.StatusInternalServerError, env.do(t, http.MethodGet, "/products/search?q=lamp", nil, "").Code)
}

type cartBody struct {
	OrderID     *uuid.UUID        `json:"order_id"`
	Status      string            `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Lines       []models.CartLine `json:"lines"`
}

func TestCartCheckoutCancel(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "dave", "dave@example.com")
	pid := env.product(t, "mug", 10, "5.00")

	rec := env.do(t, http.MethodGet, "/cart", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[cartBody](t, rec)
	assert.Nil(t, empty.OrderID)
	assert.Empty(t, empty.Lines)

	rec = env.do(t, http.MethodPost, "/cart/add", transport.AddItemRequest{ProductID: pid, Quantity: 3}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cart := decode[cartBody](t, rec)
	require.NotNil(t, cart.OrderID)
	assert.True(t, decimal.NewFromInt(15).Equal(cart.TotalAmount))

	rec = env.do(t, http.MethodPost, "/cart/add", transport.AddItemRequest{ProductID: pid, Quantity: 20}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/checkout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[transport.CheckoutResponse](t, rec)
	assert.Equal(t, *cart.OrderID, paid.OrderID)
	assert.Equal(t, string(domain.StatusPaid), paid.Status)
	assert.True(t, decimal.NewFromInt(15).Equal(paid.TotalAmount))

	rec = env.do(t, http.MethodGet, "/orders/"+paid.OrderID.String(), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusPaid, decode[models.Order](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/orders/"+paid.OrderID.String()+"/cancel", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusCancelled, decode[models.Order](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/orders/"+paid.OrderID.String()+"/ship", nil, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	p, err := env.repo.GetProduct(t.Context(), pid)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Availability)

	rec = env.do(t, http.MethodGet, "/orders", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
}

func TestCartRemove(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "erin", "erin@example.com")
	pid := env.product(t, "pen", 10, "2.00")

	rec := env.do(t, http.MethodPost, "/cart/remove", transport.RemoveItemRequest{ProductID: pid}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/cart/add", transport.AddItemRequest{ProductID: pid, Quantity: 2}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/cart/remove", transport.RemoveItemRequest{ProductID: pid}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartBody](t, rec)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.TotalAmount.IsZero())

	rec = env.do(t, http.MethodPost, "/checkout", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShipOwnership(t *testing.T) {
	env := newTestEnv(t)
	admin := env.signup(t, "root", "admin@shop.test")
	owner := env.signup(t, "frank", "frank@example.com")
	other := env.signup(t, "grace", "grace@example.com")
	pid := env.product(t, "lamp", 3, "10.00")

	rec := env.do(t, http.MethodPost, "/cart/add", transport.AddItemRequest{ProductID: pid, Quantity: 1}, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartBody](t, rec)
	orderPath := "/orders/" + cart.OrderID.String()

	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, orderPath+"/ship", nil, owner).Code)

	rec = env.do(t, http.MethodPost, "/checkout", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, orderPath+"/ship", nil, other).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, orderPath, nil, other).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, orderPath+"/cancel", nil, admin).Code)

	rec = env.do(t, http.MethodPost, orderPath+"/ship", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusShipped, decode[models.Order](t, rec).Status)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/orders/"+uuid.NewString()+"/ship", nil, owner).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/orders/x/ship", nil, owner).Code)
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t)
	e := echo.New()
	Register(e, &Deps{
		CatalogHandler: &CatalogHTTP{},
		CartHandler:    &CartHTTP{},
		OrderHandler:   &OrderHTTP{},
		AuthHandler:    &AuthHTTP{Svc: &service.AuthService{Repo: env.repo, JWTSecret: testSecret, AccessTTL: time.Hour}},
		JWTSecret:      testSecret,
		AuthRate:       1,
		AuthBurst:      2,
	})
	env.e = e

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, env.do(t, http.MethodPost, "/auth/login", transport.LoginRequest{Email: "x@example.com", Password: "pw"}, "").Code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
