// Package fakemarket is an in-memory stand-in for the marketplace REST API,
// used by tests and local demos. It follows the backend's wire format and
// enforces forward-only order status changes.
package fakemarket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"agromart/models"
	"agromart/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

const (
	jwtSecret     = "fakemarket-secret"
	PaymentSecret = "fakemarket-razorpay-secret"
	PaymentKey    = "rzp_test_fakemarket"
)

type account struct {
	user     models.User
	password string
}

// Server is the fake backend. All state is guarded by mu.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	products []models.Product
	orders   []models.Order
	requests []models.OrderRequest
	intents  []models.PaymentIntentRequest
	contacts []models.ContactMessage
	tokenTTL time.Duration
	failNext int
	router   *httprouter.Router
}

func New() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		tokenTTL: time.Hour,
	}
	r := httprouter.New()
	r.POST("/api/auth/register", s.register)
	r.POST("/api/auth/login", s.login)
	r.GET("/api/auth/me", s.authed(s.me))
	r.GET("/api/products", s.listProducts)
	r.GET("/api/products/:id", s.getProduct)
	r.POST("/api/products", s.authed(s.createProduct))
	r.PUT("/api/products/:id", s.authed(s.updateProduct))
	r.DELETE("/api/products/:id", s.authed(s.deleteProduct))
	r.GET("/api/farmer/products", s.authed(s.farmerProducts))
	r.GET("/api/orders", s.authed(s.listOrders))
	r.POST("/api/orders", s.authed(s.createOrder))
	r.PUT("/api/orders/:id/status", s.authed(s.updateStatus))
	r.POST("/api/payments/create-order", s.authed(s.createIntent))
	r.POST("/api/payments/verify", s.authed(s.verify))
	r.POST("/api/contact", s.contact)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.failNext
	if fail > 0 {
		s.failNext = 0
	}
	s.mu.Unlock()
	if fail > 0 {
		utils.RespondWithError(w, fail, "injected failure")
		return
	}
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next request answer with status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = status
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Server) SetTokenTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = d
}

// AddUser registers an account directly and returns its identity.
func (s *Server) AddUser(name, email, password string, role models.Role) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.User{
		ID:        utils.GetUUID(),
		Email:     email,
		Name:      name,
		Role:      role,
		CreatedAt: models.NewTimestamp(time.Now()),
	}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// AddProduct lists p for farmer and returns it with its id.
func (s *Server) AddProduct(farmer models.User, p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = utils.GetUUID()
	}
	p.FarmerID = farmer.ID
	p.FarmerName = farmer.Name
	p.Available = true
	p.CreatedAt = models.NewTimestamp(time.Now())
	s.products = append(s.products, p)
	return p
}

// Orders returns a copy of every stored order.
func (s *Server) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// OrderRequests returns the raw bodies POSTed to /api/orders.
func (s *Server) OrderRequests() []models.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Intents returns the payment intent requests received.
func (s *Server) Intents() []models.PaymentIntentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.intents)
}

func (s *Server) Contacts() []models.ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contacts)
}

// Sign produces the signature the verify endpoint accepts.
func Sign(orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(PaymentSecret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

// --- auth ---

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issue(u models.User) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	})
	signed, _ := tok.SignedString([]byte(jwtSecret))
	return signed
}

type userHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, u models.User)

func (s *Server) authed(next userHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		c := &claims{}
		_, err := jwt.ParseWithClaims(h[7:], c, func(*jwt.Token) (any, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		s.mu.Lock()
		var found *models.User
		for _, a := range s.accounts {
			if a.user.ID == c.Subject {
				u := a.user
				found = &u
				break
			}
		}
		s.mu.Unlock()
		if found == nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
			return
		}
		next(w, r, ps, *found)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.RespondWithJSON(w, http.StatusUnprocessableEntity, utils.M{
			"detail": []utils.M{{"loc": []string{"body"}, "msg": "invalid JSON"}},
		})
		return false
	}
	return true
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p models.Profile
	if !decode(w, r, &p) {
		return
	}
	s.mu.Lock()
	_, exists := s.accounts[p.Email]
	s.mu.Unlock()
	if exists {
		utils.RespondWithError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	u := s.AddUser(p.Name, p.Email, p.Password, p.Role)
	s.mu.Lock()
	s.accounts[p.Email].user.Phone = p.Phone
	s.accounts[p.Email].user.Location = p.Location
	u = s.accounts[p.Email].user
	tok := s.issue(u)
	s.mu.Unlock()
	utils.RespondWithJSON(w, http.StatusOK, models.AuthResponse{AccessToken: tok, TokenType: "bearer", User: u})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var c models.Credentials
	if !decode(w, r, &c) {
		return
	}
	s.mu.Lock()
	a, ok := s.accounts[c.Email]
	var tok string
	if ok && a.password == c.Password {
		tok = s.issue(a.user)
	}
	s.mu.Unlock()
	if tok == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.AuthResponse{AccessToken: tok, TokenType: "bearer", User: a.user})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, u models.User) {
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// --- products ---

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cat := r.URL.Query().Get("category")
	search := strings.ToLower(r.URL.Query().Get("search"))
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.products {
		if !p.Available || (cat != "" && p.Category != cat) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

func (s *Server) findProduct(id string) int {
	return slices.IndexFunc(s.products, func(p models.Product) bool { return p.ID == id })
}

func (s *Server) getProduct(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProduct(ps.ByName("id"))
	if i < 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, s.products[i])
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params, u models.User) {
	if u.Role != models.RoleFarmer {
		utils.RespondWithError(w, http.StatusForbidden, "Only farmers can add products")
		return
	}
	var in models.ProductInput
	if !decode(w, r, &in) {
		return
	}
	p := s.AddProduct(u, productFrom(in))
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func productFrom(in models.ProductInput) models.Product {
	return models.Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Location:    in.Location,
		ImageURL:    in.ImageURL,
	}
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params, u models.User) {
	var in models.ProductInput
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProduct(ps.ByName("id"))
	if i < 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	old := s.products[i]
	if old.FarmerID != u.ID {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized")
		return
	}
	p := productFrom(in)
	p.ID, p.FarmerID, p.FarmerName, p.Available, p.CreatedAt = old.ID, old.FarmerID, old.FarmerName, old.Available, old.CreatedAt
	s.products[i] = p
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, _ *http.Request, ps httprouter.Params, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.findProduct(ps.ByName("id"))
	if i < 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if u.Role != models.RoleAdmin && s.products[i].FarmerID != u.ID {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized")
		return
	}
	s.products = slices.Delete(s.products, i, i+1)
	utils.RespondWithJSON(w, http.StatusOK, models.Message{Message: "Product deleted successfully"})
}

func (s *Server) farmerProducts(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, u models.User) {
	if u.Role != models.RoleFarmer {
		utils.RespondWithError(w, http.StatusForbidden, "Only farmers have products")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Product{}
	for _, p := range s.products {
		if p.FarmerID == u.ID {
			out = append(out, p)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

// --- orders ---

func (s *Server) listOrders(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.orders {
		switch {
		case u.Role == models.RoleBuyer && o.BuyerID == u.ID,
			u.Role == models.RoleFarmer && o.FarmerID == u.ID,
			u.Role == models.RoleAdmin:
			out = append(out, o)
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, out)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params, u models.User) {
	if u.Role != models.RoleBuyer {
		utils.RespondWithError(w, http.StatusForbidden, "Only buyers can create orders")
		return
	}
	var req models.OrderRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Order has no items")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	i := s.findProduct(req.Items[0].ProductID)
	if i < 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	total := decimal.Zero
	for _, it := range req.Items {
		total = total.Add(it.Total)
	}
	o := models.Order{
		ID:              utils.GetUUID(),
		BuyerID:         u.ID,
		BuyerName:       u.Name,
		BuyerEmail:      u.Email,
		FarmerID:        s.products[i].FarmerID,
		FarmerName:      s.products[i].FarmerName,
		Items:           req.Items,
		TotalAmount:     total,
		Status:          models.StatusPending,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       models.NewTimestamp(time.Now()),
	}
	s.orders = append(s.orders, o)
	utils.RespondWithJSON(w, http.StatusOK, o)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params, u models.User) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	if u.Role != models.RoleFarmer {
		utils.RespondWithError(w, http.StatusForbidden, "Only farmers can update orders")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.orders, func(o models.Order) bool { return o.ID == ps.ByName("id") })
	if i < 0 {
		utils.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if s.orders[i].FarmerID != u.ID {
		utils.RespondWithError(w, http.StatusForbidden, "Not authorized")
		return
	}
	if !s.orders[i].Status.CanTransitionTo(status) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid status transition")
		return
	}
	s.orders[i].Status = status
	utils.RespondWithJSON(w, http.StatusOK, models.Message{Message: "Order status updated"})
}

// --- payments ---

func (s *Server) createIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ models.User) {
	var req models.PaymentIntentRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.intents = append(s.intents, req)
	s.mu.Unlock()
	utils.RespondWithJSON(w, http.StatusOK, models.PaymentIntent{
		OrderID: "order_" + utils.GetUUID()[:12],
		Amount:  req.Amount,
		Key:     PaymentKey,
	})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params, _ models.User) {
	var cb models.PaymentCallback
	if !decode(w, r, &cb) {
		return
	}
	if !hmac.Equal([]byte(Sign(cb.OrderID, cb.PaymentID)), []byte(cb.Signature)) {
		utils.RespondWithError(w, http.StatusBadRequest, "Payment verification failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.PaymentVerification{Success: true})
}

func (s *Server) contact(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var msg models.ContactMessage
	if !decode(w, r, &msg) {
		return
	}
	s.mu.Lock()
	s.contacts = append(s.contacts, msg)
	s.mu.Unlock()
	utils.RespondWithJSON(w, http.StatusOK, models.Message{Message: "Message sent"})
}
