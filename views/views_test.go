package views

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"agromart/app"
	"agromart/config"
	"agromart/db"
	"agromart/fakemarket"
	"agromart/gateway"
	"agromart/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fm    *fakemarket.Server
	cfg   *config.Config
	store *db.MemoryStore
	p     models.Product
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fm := fakemarket.New()
	srv := httptest.NewServer(fm)
	t.Cleanup(srv.Close)

	farmer := fm.AddUser("Ravi", "ravi@example.com", "pw", models.RoleFarmer)
	fm.AddUser("Asha", "asha@example.com", "pw", models.RoleBuyer)
	p := fm.AddProduct(farmer, models.Product{
		Name: "Potato", Description: "Fresh", Category: "vegetables", Price: decimal.NewFromInt(50),
		Quantity: decimal.NewFromInt(40), Unit: "kg", Location: "Nashik",
	})

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.API.RatePerSecond = 0
	cfg.Storage.Driver = "memory"
	return &harness{fm: fm, cfg: cfg, store: db.NewMemoryStore(), p: p}
}

// run executes one command line against a fresh command tree sharing the
// harness store, the way separate invocations share the data dir.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(func(ctx context.Context, _ *viper.Viper, _ string) (*app.App, error) {
		return app.NewWithStore(ctx, h.cfg, h.store, zerolog.Nop())
	})
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestLoginLandsByRole(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "login", "-e", "asha@example.com", "-p", "pw")
	assert.Contains(t, out, "Welcome, Asha!")
	assert.Contains(t, out, "agromart orders")

	out = h.mustRun(t, "whoami")
	assert.Contains(t, out, "asha@example.com")

	out = h.mustRun(t, "login", "-e", "ravi@example.com", "-p", "pw")
	assert.Contains(t, out, "agromart farmer")
}

func TestErrorsBecomeOneLine(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "login", "-e", "asha@example.com", "-p", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", ErrorLine(err))

	_, err = h.run(t, "cart", "add", h.p.ID)
	assert.Equal(t, "Please log in to continue (agromart login)", ErrorLine(err))

	h.mustRun(t, "login", "-e", "ravi@example.com", "-p", "pw")
	_, err = h.run(t, "cart")
	assert.Equal(t, "Only buyers can use the cart", ErrorLine(err))

	_, err = h.run(t, "products", "show", "missing")
	assert.Equal(t, "Product not found", ErrorLine(err))

	assert.Equal(t, "Network error, please try again", ErrorLine(&gateway.NetworkError{Detail: "x"}))
}

func TestBuyerToFarmerJourney(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-e", "asha@example.com", "-p", "pw")

	out := h.mustRun(t, "products", "--category", "vegetables")
	assert.Contains(t, out, "Potato")

	_, err := h.run(t, "cart", "add", h.p.ID, "-q", "41")
	var ve *gateway.ValidationError
	require.ErrorAs(t, err, &ve)

	assert.Contains(t, h.mustRun(t, "cart", "add", h.p.ID, "-q", "3"), "Added to cart!")
	assert.Contains(t, h.mustRun(t, "cart"), "₹150.00")

	out = h.mustRun(t, "checkout", "--address", "12 Farm Rd", "--method", "cod")
	assert.Contains(t, out, "COD charges")
	assert.Contains(t, out, "₹190.00")
	assert.Contains(t, out, "Order placed (COD)")
	assert.Contains(t, h.mustRun(t, "cart"), "Your cart is empty.")

	out = h.mustRun(t, "orders")
	assert.Contains(t, out, "PENDING")
	assert.Contains(t, out, "Total orders: 1")

	orderID := h.fm.Orders()[0].ID
	path := filepath.Join(t.TempDir(), "r.pdf")
	h.mustRun(t, "receipt", orderID, "-o", path)
	pdf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	h.mustRun(t, "logout")
	h.mustRun(t, "login", "-e", "ravi@example.com", "-p", "pw")
	out = h.mustRun(t, "farmer")
	assert.Contains(t, out, "Confirm Order")
	assert.Contains(t, out, "Pending: 1")

	assert.Contains(t, h.mustRun(t, "farmer", "advance", orderID), "CONFIRMED")
	assert.Contains(t, h.mustRun(t, "farmer", "advance", orderID), "DELIVERED")
	_, err = h.run(t, "farmer", "advance", orderID)
	require.ErrorAs(t, err, &ve)
}

func TestFarmerProductCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-e", "ravi@example.com", "-p", "pw")

	_, err := h.run(t, "farmer", "add", "--name", "Mango")
	var ve *gateway.ValidationError
	require.ErrorAs(t, err, &ve)

	out := h.mustRun(t, "farmer", "add", "--name", "Mango", "--description", "Alphonso",
		"--category", "fruits", "--price", "300", "--quantity", "20", "--unit", "dozen", "--location", "Ratnagiri")
	assert.Contains(t, out, "Product added successfully!")

	out = h.mustRun(t, "farmer", "edit", h.p.ID, "--price", "55")
	assert.Contains(t, out, "₹55.00")
	assert.Contains(t, out, "Potato")

	h.mustRun(t, "farmer", "delete", h.p.ID)
	out = h.mustRun(t, "farmer")
	assert.Contains(t, out, "Products: 1")
}

func TestContact(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "contact", "--name", "A", "--email", "not-an-email", "--subject", "s", "--message", "m")
	var ve *gateway.ValidationError
	require.ErrorAs(t, err, &ve)

	h.mustRun(t, "contact", "--name", "A", "--email", "a@example.com", "--subject", "s", "--message", "hello")
	require.Len(t, h.fm.Contacts(), 1)
	assert.Equal(t, "hello", h.fm.Contacts()[0].Message)
}

func TestGlobalFlagsOverrideConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGROMART_STORAGE_DIR", t.TempDir())

	stop := errors.New("stop")
	var cfg *config.Config
	root := NewRootCommand(func(_ context.Context, v *viper.Viper, path string) (*app.App, error) {
		var err error
		cfg, err = config.Load(v, path)
		require.NoError(t, err)
		return nil, stop
	})
	root.SetArgs([]string{"whoami", "--api", "http://market.test:9000", "--log-level", "debug"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.ErrorIs(t, err, stop)
	require.NotNil(t, cfg)
	assert.Equal(t, "http://market.test:9000", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

type closeCountingStore struct {
	*db.MemoryStore
	closed int
}

func (s *closeCountingStore) Close(ctx context.Context) error {
	s.closed++
	return s.MemoryStore.Close(ctx)
}

func TestFailingCommandStillClosesApp(t *testing.T) {
	h := newHarness(t)
	store := &closeCountingStore{MemoryStore: h.store}
	run := func(args ...string) error {
		root := NewRootCommand(func(ctx context.Context, _ *viper.Viper, _ string) (*app.App, error) {
			return app.NewWithStore(ctx, h.cfg, store, zerolog.Nop())
		})
		root.SetOut(&bytes.Buffer{})
		root.SetArgs(args)
		return root.ExecuteContext(context.Background())
	}

	require.Error(t, run("login", "-e", "asha@example.com", "-p", "nope"))
	assert.Equal(t, 1, store.closed)

	require.NoError(t, run("products"))
	assert.Equal(t, 2, store.closed)
}

func TestWriteFileRemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.pdf")
	boom := errors.New("render failed")

	err := writeFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "%PDF-1.3 partial")
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NoFileExists(t, path)

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "%PDF-1.3")
		return err
	}))
	assert.FileExists(t, path)
}
