package pay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"agromart/globals"
	"agromart/models"
	"agromart/ratelim"
	"agromart/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

// LoopbackWidget serves the hosted checkout page on a local address and
// waits for the page to post the outcome back. Each Open gets its own
// server and an unguessable path.
type LoopbackWidget struct {
	// Addr is the listen address, e.g. "127.0.0.1:0".
	Addr string
	// Out receives the URL and a terminal QR code. Nil prints nothing.
	Out io.Writer
	// OnReady, if set, is called with the page URL once the server listens.
	OnReady func(url string)
	Logger  zerolog.Logger
}

type outcome struct {
	cb  *models.PaymentCallback
	err error
}

func (lw *LoopbackWidget) Open(ctx context.Context, req Request) (*models.PaymentCallback, error) {
	addr := lw.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("payment callback listener: %w", err)
	}

	token := utils.GetUUID()
	base := "http://" + ln.Addr().String()
	pageURL := base + "/pay/" + token
	results := make(chan outcome, 1)

	server := &http.Server{
		Handler:           lw.handler(base, token, req, results),
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lw.Logger.Error().Err(err).Msg("payment callback server")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lw.Logger.Warn().Err(err).Msg("payment callback server shutdown")
		}
	}()

	lw.Logger.Debug().Str("url", pageURL).Str("order_id", req.Intent.OrderID).Msg("payment page ready")
	lw.announce(pageURL)

	select {
	case o := <-results:
		return o.cb, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (lw *LoopbackWidget) announce(pageURL string) {
	if lw.Out != nil {
		fmt.Fprintf(lw.Out, "Complete the payment in your browser:\n  %s\n", pageURL)
		if qr, err := qrcode.New(pageURL, qrcode.Medium); err == nil {
			fmt.Fprint(lw.Out, qr.ToSmallString(false))
		}
	}
	if lw.OnReady != nil {
		lw.OnReady(pageURL)
	}
}

func (lw *LoopbackWidget) handler(base, token string, req Request, results chan<- outcome) http.Handler {
	deliver := func(o outcome) {
		select {
		case results <- o:
		default:
			// only the first outcome counts
		}
	}

	limiter := ratelim.NewRateLimiter(5, 10)
	router := httprouter.New()

	router.GET("/pay/:token", limiter.Limit(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("token") != token {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := pageData{
			Key:         req.Intent.Key,
			Amount:      req.Intent.Amount,
			Currency:    req.Intent.Currency,
			OrderID:     req.Intent.OrderID,
			Merchant:    req.Merchant,
			Description: req.Description,
			Display:     utils.FormatCurrency(req.Amount),
			Name:        req.Prefill.Name,
			Email:       req.Prefill.Email,
			Phone:       req.Prefill.Phone,
			SuccessURL:  base + "/pay/" + token + "/success",
			DismissURL:  base + "/pay/" + token + "/dismiss",
		}
		if data.Currency == "" {
			data.Currency = globals.DefaultCurrency
		}
		if err := checkoutPage.Execute(w, data); err != nil {
			lw.Logger.Error().Err(err).Msg("render payment page")
		}
	}))

	router.POST("/pay/:token/success", limiter.Limit(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("token") != token {
			http.NotFound(w, r)
			return
		}
		var cb models.PaymentCallback
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&cb); err != nil || !cb.Complete() {
			utils.RespondWithError(w, http.StatusBadRequest, "incomplete payment response")
			return
		}
		deliver(outcome{cb: &cb})
		utils.RespondWithJSON(w, http.StatusOK, models.Message{Message: "received"})
	}))

	router.POST("/pay/:token/dismiss", limiter.Limit(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("token") != token {
			http.NotFound(w, r)
			return
		}
		deliver(outcome{err: ErrDismissed})
		utils.RespondWithJSON(w, http.StatusOK, models.Message{Message: "cancelled"})
	}))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{base, "https://api.razorpay.com", "https://checkout.razorpay.com"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	return securityHeaders(corsHandler)
}

// securityHeaders applies the response headers for the local payment page.
// No HSTS: the page is served over plain loopback HTTP.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// XSS, content sniffing, framing
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		// Referrer and permissions
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// Prevent caching
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}
