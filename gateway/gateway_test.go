package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"agromart/fakemarket"
	"agromart/models"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.Handler, token func() string, onUnauthorized func()) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:         srv.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 3,
		BreakerCooldown: time.Minute,
		Token:           token,
		OnUnauthorized:  onUnauthorized,
		Logger:          zerolog.Nop(),
		Transport:       http.DefaultTransport,
	})
}

func TestLoginThenAuthenticatedCall(t *testing.T) {
	fm := fakemarket.New()
	u := fm.AddUser("Asha", "asha@example.com", "secret", models.RoleBuyer)

	var token string
	c := newClient(t, fm, func() string { return token }, nil)

	res, err := c.Login(context.Background(), " asha@example.com ", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, u.ID, res.User.ID)
	assert.Equal(t, models.RoleBuyer, res.User.Role)

	token = res.AccessToken
	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", me.Email)
}

func TestLoginRejected(t *testing.T) {
	fm := fakemarket.New()
	fm.AddUser("Asha", "asha@example.com", "secret", models.RoleBuyer)
	c := newClient(t, fm, nil, nil)

	_, err := c.Login(context.Background(), "asha@example.com", "wrong")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Equal(t, "Invalid credentials", Message(err, "Login failed"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	fm := fakemarket.New()
	fm.AddUser("Asha", "asha@example.com", "secret", models.RoleBuyer)
	c := newClient(t, fm, nil, nil)

	_, err := c.Register(context.Background(), models.Profile{
		Name: "Other", Email: "asha@example.com", Password: "x", Role: models.RoleFarmer,
	})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Email already registered", ae.Detail)
}

func TestClientSideValidationSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), nil, nil)
	ctx := context.Background()

	_, err := c.Register(ctx, models.Profile{Email: "a@b.c", Password: "x", Role: models.RoleBuyer})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = c.Register(ctx, models.Profile{Name: "A", Email: "a@b.c", Password: "x", Role: models.RoleAdmin})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "role", ve.Field)

	_, err = c.CreateOrder(ctx, models.OrderRequest{
		Items:         []models.OrderItem{{ProductID: "p1"}},
		PaymentMethod: models.PaymentCOD,
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please enter delivery address", ve.Detail)

	_, err = c.CreateProduct(ctx, models.ProductInput{Name: "Tomato"})
	require.ErrorAs(t, err, &ve)

	err = c.SubmitContact(ctx, models.ContactMessage{Name: "A"})
	require.ErrorAs(t, err, &ve)

	assert.Zero(t, hits.Load())
}

func TestUnauthorizedExpiresSession(t *testing.T) {
	fm := fakemarket.New()
	var expired atomic.Int32
	c := newClient(t, fm, func() string { return "not-a-valid-token" }, func() { expired.Add(1) })

	_, err := c.ListOrders(context.Background())
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, int32(1), expired.Load())
}

func TestAnonymousCallCarriesNoCredential(t *testing.T) {
	var header atomic.Value
	r := httprouter.New()
	r.GET("/api/products", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		header.Store(r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, "[]")
	})
	c := newClient(t, r, func() string { return "tok" }, nil)

	out, err := c.ListProducts(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, header.Load())
}

func TestListProductsQuery(t *testing.T) {
	var raw atomic.Value
	r := httprouter.New()
	r.GET("/api/products", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		raw.Store(r.URL.RawQuery)
		_, _ = io.WriteString(w, "null")
	})
	c := newClient(t, r, nil, nil)
	ctx := context.Background()

	out, err := c.ListProducts(ctx, models.ProductFilter{Category: "all"})
	require.NoError(t, err)
	assert.Equal(t, []models.Product{}, out)
	assert.Equal(t, "", raw.Load())

	_, err = c.ListProducts(ctx, models.ProductFilter{Category: "fruits", Search: "mango"})
	require.NoError(t, err)
	assert.Equal(t, "category=fruits&search=mango", raw.Load())
}

func TestDecodesBackendPayloads(t *testing.T) {
	r := httprouter.New()
	r.POST("/api/auth/login", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = io.WriteString(w, `{"access_token":"tok","token_type":"bearer","user":{`+
			`"id":"u1","email":"asha@example.com","name":"Asha","role":"buyer",`+
			`"phone":null,"location":null,"created_at":"2025-03-01T10:30:00.123000"}}`)
	})
	r.GET("/api/products", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		_, _ = io.WriteString(w, `[{"id":"p1","name":"Tomatoes","description":"Red","category":"vegetables",`+
			`"price":50.0,"quantity":100.0,"unit":"kg","farmer_id":"f1","farmer_name":"Ravi",`+
			`"location":"Pune","image_url":null,"available":true,"created_at":"2025-03-01T10:30:00"}]`)
	})
	c := newClient(t, r, nil, nil)
	ctx := context.Background()

	res, err := c.Login(ctx, "asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Empty(t, res.User.Phone)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 123000000, time.UTC), res.User.CreatedAt.Time)

	products, err := c.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Empty(t, products[0].ImageURL)
	assert.True(t, decimal.NewFromInt(50).Equal(products[0].Price))
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), products[0].CreatedAt.Time)
}

func TestProductNotFound(t *testing.T) {
	c := newClient(t, fakemarket.New(), nil, nil)
	_, err := c.GetProduct(context.Background(), "missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Product not found", Message(err, "Failed to load product"))
}

func TestValidationListDetail(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`)
	}), nil, nil)

	err := c.SubmitContact(context.Background(), models.ContactMessage{
		Name: "A", Email: "a@example.com", Subject: "s", Message: "m",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email: field required", ve.Detail)
}

func TestUpdateOrderStatusWire(t *testing.T) {
	type seen struct {
		id, status string
		body       models.StatusUpdate
		auth       string
	}
	ch := make(chan seen, 1)
	r := httprouter.New()
	r.PUT("/api/orders/:id/status", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var s seen
		s.id = ps.ByName("id")
		s.status = r.URL.Query().Get("status")
		s.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&s.body)
		ch <- s
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	c := newClient(t, r, func() string { return "tok" }, nil)

	require.NoError(t, c.UpdateOrderStatus(context.Background(), "o-1", models.StatusConfirmed))
	s := <-ch
	assert.Equal(t, "o-1", s.id)
	assert.Equal(t, "confirmed", s.status)
	assert.Equal(t, models.StatusConfirmed, s.body.Status)
	assert.Equal(t, "Bearer tok", s.auth)
}

func TestCreateOrderAgainstFake(t *testing.T) {
	fm := fakemarket.New()
	farmer := fm.AddUser("Ravi", "ravi@example.com", "pw", models.RoleFarmer)
	p := fm.AddProduct(farmer, models.Product{Name: "Tomato", Category: "vegetables", Price: decimal.NewFromInt(30), Quantity: decimal.NewFromInt(100), Unit: "kg"})
	fm.AddUser("Asha", "asha@example.com", "pw", models.RoleBuyer)

	var token string
	c := newClient(t, fm, func() string { return token }, nil)
	res, err := c.Login(context.Background(), "asha@example.com", "pw")
	require.NoError(t, err)
	token = res.AccessToken

	o, err := c.CreateOrder(context.Background(), models.OrderRequest{
		Items:           []models.OrderItem{models.NewOrderItem(p, 2)},
		DeliveryAddress: "12 Market Road",
		PaymentMethod:   models.PaymentCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, o.Status)
	assert.True(t, decimal.NewFromInt(60).Equal(o.TotalAmount))
	assert.Equal(t, "Ravi", o.FarmerName)
}

func TestServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), nil, nil)

	for range 3 {
		_, err := c.ListProducts(context.Background(), models.ProductFilter{})
		var ne *NetworkError
		require.ErrorAs(t, err, &ne)
	}
	_, err := c.ListProducts(context.Background(), models.ProductFilter{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, "Network error, please try again", Message(err, "x"))
	assert.Equal(t, int32(3), hits.Load())
}

func TestServerErrorDetailIsShown(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"detail":"Payment provider unavailable"}`)
	}), nil, nil)

	_, err := c.ListProducts(context.Background(), models.ProductFilter{})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusServiceUnavailable, ne.Status)
	assert.Equal(t, "Payment provider unavailable", Message(err, "Failed to load products"))
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := New(Options{BaseURL: url, Timeout: time.Second, Logger: zerolog.Nop(), Transport: http.DefaultTransport})

	_, err := c.ListProducts(context.Background(), models.ProductFilter{})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Zero(t, ne.Status)
	assert.Equal(t, "Network error, please try again", Message(err, "x"))
}

func TestUndecodableResponse(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>")
	}), nil, nil)
	_, err := c.GetProduct(context.Background(), "p")
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "unexpected response from server", ne.Detail)
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
	assert.Equal(t, "Payment cancelled", Message(&PaymentError{Detail: "Payment cancelled"}, "x"))
}
