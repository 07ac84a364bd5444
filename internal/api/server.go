package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/nftmarket/internal/balance"
	"github.com/betbot/nftmarket/internal/domain"
	"github.com/betbot/nftmarket/internal/orderbook"
	"github.com/betbot/nftmarket/internal/services"
	"github.com/betbot/nftmarket/internal/session"
	"github.com/betbot/nftmarket/internal/trade"
)

var log = logrus.WithField("component", "api")

// Storefront HTTP 层依赖的商城操作
type Storefront interface {
	Identity() session.Identity
	Connect(ctx context.Context) (session.Identity, error)
	RefreshOrders(ctx context.Context) []domain.Order
	Listings() []services.Listing
	OrderBook() orderbook.Snapshot
	OnOrderBookUpdate(fn func(orderbook.Snapshot))
	Balance() balance.Snapshot
	Holdings() []domain.BalanceEntry
	Buy(ctx context.Context, tokenID, sellerKey string) error
	Sell(ctx context.Context, tokenID string, price decimal.Decimal) error
}

// Options 服务选项
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Server 商城 HTTP API + 订单簿 websocket 推送
type Server struct {
	store    Storefront
	opts     Options
	hub      *hub
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New 创建服务并订阅订单簿更新
func New(store Storefront, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}
	s := &Server{store: store, opts: opts, hub: newHub()}
	s.upgrader = newUpgrader(opts.AllowedOrigins)
	s.handler = s.buildHandler()

	store.OnOrderBookUpdate(func(snap orderbook.Snapshot) {
		s.hub.broadcast(wsMessage{Type: "orderbook", Data: newOrderBookView(snap)})
	})
	return s
}

// Handler 带 CORS 的路由
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close 断开所有 websocket 连接
func (s *Server) Close() {
	s.hub.close()
}

func (s *Server) buildHandler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/orders", s.handleOrders)
	api.GET("/balance", s.handleBalance)
	api.GET("/session", s.handleSession)
	api.GET("/ws", s.handleWS)

	// 写操作动用钱包：只接受 JSON，跨站表单提交无法绕过 CORS 预检
	write := api.Group("", requireJSON)
	write.POST("/orders/refresh", s.handleOrdersRefresh)
	write.POST("/connect", s.handleConnect)
	write.POST("/buy", s.handleBuy)
	write.POST("/sell", s.handleSell)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// requireJSON 非 application/json 请求返回 415
func requireJSON(c *gin.Context) {
	if c.ContentType() != binding.MIMEJSON {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "content type must be application/json"})
		return
	}
	c.Next()
}

func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.opts.RequestTimeout)
}

func (s *Server) handleOrders(c *gin.Context) {
	snap := s.store.OrderBook()
	c.JSON(http.StatusOK, newOrderBookView(snap))
}

func (s *Server) handleOrdersRefresh(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	s.store.RefreshOrders(ctx)
	c.JSON(http.StatusOK, newListingsView(s.store.OrderBook().CollectionAddress, s.store.Listings()))
}

func (s *Server) handleBalance(c *gin.Context) {
	c.JSON(http.StatusOK, newBalanceView(s.store.Balance(), s.store.Holdings()))
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, newIdentityView(s.store.Identity()))
}

func (s *Server) handleConnect(c *gin.Context) {
	ctx, cancel := s.requestContext(c)
	defer cancel()
	id, err := s.store.Connect(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newIdentityView(id))
}

type buyRequest struct {
	TokenID   string `json:"token_id"`
	SellerKey string `json:"seller_key"`
}

func (s *Server) handleBuy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	req.TokenID = strings.TrimSpace(req.TokenID)
	if req.TokenID == "" || req.SellerKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_id and seller_key are required"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.store.Buy(ctx, req.TokenID, req.SellerKey); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

type sellRequest struct {
	TokenID string `json:"token_id"`
	Price   string `json:"price"`
}

func (s *Server) handleSell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	req.TokenID = strings.TrimSpace(req.TokenID)
	if req.TokenID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_id is required"})
		return
	}
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	if err := s.store.Sell(ctx, req.TokenID, price); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("ws 升级失败: %v", err)
		return
	}
	client, ok := s.hub.add(conn)
	if !ok {
		_ = conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()

	// 新连接先收到当前快照
	snap := s.store.OrderBook()
	s.hub.sendTo(client, wsMessage{Type: "orderbook", Data: newOrderBookView(snap)})
}

// writeError 领域错误到 HTTP 状态码
func writeError(c *gin.Context, err error) {
	var (
		rej *trade.Rejection
		sub *trade.SubmissionError
	)
	switch {
	case errors.As(err, &rej):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": rej.Reason.Error()})
	case errors.As(err, &sub):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "stage": string(sub.Stage)})
	case errors.Is(err, services.ErrNotConnected):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		log.Errorf("请求处理失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
