package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agromart/fakemarket"
	"agromart/gateway"
	"agromart/models"
	"agromart/session"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSession struct{ snap session.Snapshot }

func (s *fixedSession) Current() session.Snapshot { return s.snap }

type env struct {
	fm     *fakemarket.Server
	farmer *fixedSession
	buyer  *fixedSession
	farmGW *gateway.Client
	buyGW  *gateway.Client
	tomato models.Product
}

func login(t *testing.T, url, email string) (*gateway.Client, *fixedSession) {
	t.Helper()
	sess := &fixedSession{}
	gw := gateway.New(gateway.Options{
		BaseURL:   url,
		Timeout:   5 * time.Second,
		Token:     func() string { return sess.snap.Token },
		Logger:    zerolog.Nop(),
		Transport: http.DefaultTransport,
	})
	res, err := gw.Login(context.Background(), email, "pw")
	require.NoError(t, err)
	u := res.User
	sess.snap = session.Snapshot{User: &u, Token: res.AccessToken}
	return gw, sess
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fm := fakemarket.New()
	srv := httptest.NewServer(fm)
	t.Cleanup(srv.Close)

	farmer := fm.AddUser("Ravi", "ravi@example.com", "pw", models.RoleFarmer)
	fm.AddUser("Asha", "asha@example.com", "pw", models.RoleBuyer)
	tomato := fm.AddProduct(farmer, models.Product{
		Name: "Tomato", Category: "vegetables", Price: decimal.NewFromInt(50),
		Quantity: decimal.NewFromInt(100), Unit: "kg", Location: "Pune",
	})

	e := &env{fm: fm, tomato: tomato}
	e.farmGW, e.farmer = login(t, srv.URL, "ravi@example.com")
	e.buyGW, e.buyer = login(t, srv.URL, "asha@example.com")
	return e
}

func (e *env) placeOrder(t *testing.T, qty int) *models.Order {
	t.Helper()
	o, err := e.buyGW.CreateOrder(context.Background(), models.OrderRequest{
		Items:           []models.OrderItem{models.NewOrderItem(e.tomato, qty)},
		DeliveryAddress: "12 Farm Rd",
		PaymentMethod:   models.PaymentCOD,
	})
	require.NoError(t, err)
	return o
}

func TestHomeFor(t *testing.T) {
	assert.Equal(t, PageFarmer, HomeFor(models.RoleFarmer))
	assert.Equal(t, PageBuyer, HomeFor(models.RoleBuyer))
	assert.Equal(t, PageAdmin, HomeFor(models.RoleAdmin))
	assert.Equal(t, PageProducts, HomeFor(""))
}

func TestRequireRole(t *testing.T) {
	assert.ErrorIs(t, RequireRole(session.Snapshot{}, models.RoleBuyer), ErrLoginRequired)
	snap := session.Snapshot{User: &models.User{Role: models.RoleBuyer}, Token: "t"}
	assert.NoError(t, RequireRole(snap, models.RoleBuyer))
	assert.ErrorIs(t, RequireRole(snap, models.RoleFarmer), ErrWrongRole)
	assert.NoError(t, RequireRole(snap, models.RoleFarmer, models.RoleBuyer))
}

func TestNextAction(t *testing.T) {
	act, ok := NextAction(models.StatusPending)
	require.True(t, ok)
	assert.Equal(t, models.StatusConfirmed, act.Target)

	act, ok = NextAction(models.StatusConfirmed)
	require.True(t, ok)
	assert.Equal(t, models.StatusDelivered, act.Target)

	for _, s := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		_, ok := NextAction(s)
		assert.False(t, ok, s)
	}
}

func TestOrderMovesForwardOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := New(e.farmGW, e.farmer, zerolog.Nop())
	o := e.placeOrder(t, 2)

	// skipping confirmed is refused by the server
	err := e.farmGW.UpdateOrderStatus(ctx, o.ID, models.StatusDelivered)
	var ve *gateway.ValidationError
	require.ErrorAs(t, err, &ve)

	next, err := d.AdvanceOrder(ctx, *o)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, next)
	o.Status = next

	next, err = d.AdvanceOrder(ctx, *o)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, next)
	o.Status = next

	_, err = d.AdvanceOrder(ctx, *o)
	require.ErrorAs(t, err, &ve)
	require.ErrorAs(t, d.CancelOrder(ctx, *o), &ve)

	assert.Equal(t, models.StatusDelivered, e.fm.Orders()[0].Status)
}

func TestCancelOrder(t *testing.T) {
	e := newEnv(t)
	d := New(e.farmGW, e.farmer, zerolog.Nop())
	o := e.placeOrder(t, 1)

	require.NoError(t, d.CancelOrder(context.Background(), *o))
	assert.Equal(t, models.StatusCancelled, e.fm.Orders()[0].Status)
}

func TestFarmerOverview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := New(e.farmGW, e.farmer, zerolog.Nop())
	first := e.placeOrder(t, 1)
	e.placeOrder(t, 2)
	_, err := d.AdvanceOrder(ctx, *first)
	require.NoError(t, err)

	v, err := d.FarmerOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v.TotalProducts)
	assert.Equal(t, 2, v.TotalOrders)
	assert.Equal(t, 1, v.PendingOrders)

	_, err = New(e.buyGW, e.buyer, zerolog.Nop()).FarmerOverview(ctx)
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestBuyerOrders(t *testing.T) {
	e := newEnv(t)
	e.placeOrder(t, 3)
	e.placeOrder(t, 1)

	v, err := New(e.buyGW, e.buyer, zerolog.Nop()).BuyerOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v.Summary.TotalOrders)
	assert.Equal(t, 2, v.Summary.PendingOrders)
	assert.Equal(t, "200", v.Summary.TotalSpent.String())

	_, err = New(e.buyGW, &fixedSession{}, zerolog.Nop()).BuyerOrders(context.Background())
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestProductCRUD(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	d := New(e.farmGW, e.farmer, zerolog.Nop())

	_, err := d.CreateProduct(ctx, models.ProductInput{Name: "Mango"})
	var ve *gateway.ValidationError
	require.ErrorAs(t, err, &ve)

	in := models.ProductInput{
		Name: "Mango", Description: "Alphonso", Category: "fruits",
		Price: decimal.NewFromInt(300), Quantity: decimal.NewFromInt(20), Unit: "dozen", Location: "Ratnagiri",
	}
	p, err := d.CreateProduct(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Ravi", p.FarmerName)

	in.Price = decimal.NewFromInt(280)
	p, err = d.UpdateProduct(ctx, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "280", p.Price.String())

	require.NoError(t, d.DeleteProduct(ctx, p.ID))
	err = d.DeleteProduct(ctx, p.ID)
	var nf *gateway.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
