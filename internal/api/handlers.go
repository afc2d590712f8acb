package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"matchcore/internal/book"
	"matchcore/internal/config"
	"matchcore/internal/engine"
	"matchcore/internal/transport"
	"matchcore/pkg/types"
)

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	ctx       *engine.Context
	dashboard config.DashboardConfig
	validate  *validator.Validate
	hub       *transport.Hub
	logger    *slog.Logger
}

// NewHandlers creates a new handlers instance wired to the engine context
// and the websocket hub used by HandleWebSocket. dashboard supplies the
// allowed-origins allowlist enforced on the websocket upgrade.
func NewHandlers(ctx *engine.Context, dashboard config.DashboardConfig, hub *transport.Hub, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		ctx:       ctx,
		dashboard: dashboard,
		validate:  validator.New(),
		hub:       hub,
		logger:    logger.With("component", "api-handlers"),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps a core error to an HTTP status: UserNotFound maps to 404;
// DataValidation, InvalidPrice and IllegalArgument (all caused by bad
// request input) map to 400; anything else is a 500, since it signals a
// programming error rather than a bad request.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrDataValidation), errors.Is(err, types.ErrInvalidPrice), errors.Is(err, types.ErrIllegalArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleCreateProduct handles POST /products. Newly created products are
// subscribed to the dashboard websocket hub so GET /ws clients actually
// receive that product's market banners, rather than the hub sitting
// connected-but-unsubscribed.
func (h *Handlers) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	pb, err := h.ctx.Products.AddProduct(req.Symbol)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if h.hub != nil {
		h.ctx.Publisher.Subscribe(pb.Symbol(), h.hub)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"symbol": req.Symbol})
}

// HandleCreateUser handles POST /users.
func (h *Handlers) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	l, err := h.ctx.Users.AddUser(req.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": l.UserID()})
}

// HandleSubmitOrder handles POST /orders.
func (h *Handlers) HandleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	price, err := h.ctx.Cache.Parse(req.Price)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	t, err := book.New(h.ctx.IDs, req.User, req.Product, price, types.Side(req.Side), book.KindOrder, req.Volume)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	snap, err := h.ctx.Products.AddTradable(t)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, newSnapshotDTO(snap))
}

// HandleSubmitQuote handles POST /quotes.
func (h *Handlers) HandleSubmitQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	buyPrice, err := h.ctx.Cache.Parse(req.BuyPrice)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sellPrice, err := h.ctx.Cache.Parse(req.SellPrice)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	q := &book.Quote{
		User:       req.User,
		Product:    req.Product,
		BuyPrice:   buyPrice,
		BuyVolume:  req.BuyVolume,
		SellPrice:  sellPrice,
		SellVolume: req.SellVolume,
	}
	snaps, err := h.ctx.Products.AddQuote(h.ctx.IDs, q)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, []SnapshotDTO{newSnapshotDTO(snaps[0]), newSnapshotDTO(snaps[1])})
}

// HandleCancelOrder handles DELETE /orders/{side}/{id}?product=SYM.
func (h *Handlers) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	side := types.Side(r.PathValue("side"))
	id := r.PathValue("id")
	product := r.URL.Query().Get("product")
	if product == "" {
		writeError(w, http.StatusBadRequest, errors.New("product query parameter is required"))
		return
	}

	snap, err := h.ctx.Products.Cancel(product, side, id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if snap.ID == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"id": id})
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotDTO(snap))
}

// HandleCancelQuote handles DELETE /quotes/{user}?product=SYM.
func (h *Handlers) HandleCancelQuote(w http.ResponseWriter, r *http.Request) {
	user := r.PathValue("user")
	product := r.URL.Query().Get("product")
	if product == "" {
		writeError(w, http.StatusBadRequest, errors.New("product query parameter is required"))
		return
	}

	snaps, err := h.ctx.Products.CancelQuote(product, user)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, []SnapshotDTO{newSnapshotDTO(snaps[0]), newSnapshotDTO(snaps[1])})
}

// HandleDepth handles GET /products/{symbol}/depth.
func (h *Handlers) HandleDepth(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	pb, err := h.ctx.Products.GetProductBook(symbol)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := DepthResponse{Symbol: pb.Symbol()}
	for _, s := range pb.BuyDepth() {
		resp.Buy = append(resp.Buy, newSnapshotDTO(s))
	}
	for _, s := range pb.SellDepth() {
		resp.Sell = append(resp.Sell, newSnapshotDTO(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUserLedger handles GET /users/{id}/ledger.
func (h *Handlers) HandleUserLedger(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	l, err := h.ctx.Users.GetUser(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	var dtos []SnapshotDTO
	for _, s := range l.Tradables() {
		dtos = append(dtos, newSnapshotDTO(s))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":      l.UserID(),
		"tradables": dtos,
		"markets":   l.GetCurrentMarkets(),
	})
}

// HandleWebSocket upgrades the connection and registers a new client with
// the dashboard hub. The origin is checked against h.dashboard's allowlist
// (falling back to same-host/localhost when no allowlist is configured).
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return isOriginAllowed(req.Header.Get("Origin"), h.dashboard, req.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	transport.NewClient(h.hub, conn)
}

// isOriginAllowed reports whether origin may open a websocket connection to
// this server. An empty Origin (common for non-browser clients) is always
// allowed. With an explicit allowlist configured, only an exact
// scheme+host match against one of its entries passes. With no allowlist,
// localhost/loopback origins and an origin matching the request's own host
// are allowed, and everything else is denied.
func isOriginAllowed(origin string, cfg config.DashboardConfig, reqHost string) bool {
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	normalized := normalizeOrigin(originURL.Scheme, originURL.Host)
	if normalized == "" {
		return false
	}

	if len(cfg.AllowedOrigins) > 0 {
		for _, allowed := range cfg.AllowedOrigins {
			u, err := url.Parse(allowed)
			if err != nil {
				continue
			}
			if normalized == normalizeOrigin(u.Scheme, u.Host) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(originURL.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	reqHostname := normalizeHost(reqHost)
	return reqHostname != "" && host == reqHostname
}

func normalizeOrigin(scheme, host string) string {
	if scheme == "" || host == "" {
		return ""
	}
	return strings.ToLower(scheme) + "://" + strings.ToLower(host)
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
