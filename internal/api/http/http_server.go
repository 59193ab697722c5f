package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olyamironova/depthbook/internal/api"
	"github.com/olyamironova/depthbook/internal/api/dto"
	"github.com/olyamironova/depthbook/internal/metrics"
	"github.com/olyamironova/depthbook/internal/middleware"
	"github.com/rs/zerolog"
)

type HTTPServer struct {
	Eng       api.Service
	log       zerolog.Logger
	rateLimit time.Duration
}

func NewHTTPServer(eng api.Service, rateLimit time.Duration, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		Eng:       eng,
		log:       log.With().Str("component", "http").Logger(),
		rateLimit: rateLimit,
	}
}

// Router builds the gin engine with all routes and middleware.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(s.log))

	r.GET("/healthz", s.healthz)
	r.GET("/readyz", s.readyz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1")
	if s.rateLimit > 0 {
		v1.Use(middleware.NewRateLimiter(s.rateLimit).Middleware())
	}
	v1.GET("/symbols/:symbol", s.validateSymbol)
	v1.GET("/orderbook", s.getOrderbook)

	return r
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) readyz(c *gin.Context) {
	if !s.Eng.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "symbol registry is empty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *HTTPServer) validateSymbol(c *gin.Context) {
	symbol, err := s.Eng.ValidateSymbol(c.Param("symbol"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ValidateSymbolResponse{Symbol: symbol})
}

func (s *HTTPServer) getOrderbook(c *gin.Context) {
	var req dto.GetOrderbookRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	symbol, err := s.Eng.ValidateSymbol(req.Symbol)
	if err != nil {
		s.writeError(c, err)
		return
	}
	depth, err := dto.ParseDepth(req.Depth)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ob, err := s.Eng.GetFilteredOrderBook(c.Request.Context(), symbol, depth)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ConvertOrderbook(ob, time.Now().UTC()))
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	var status int
	switch api.Classify(err) {
	case api.KindNotFound:
		status = http.StatusNotFound
	case api.KindUnsupported:
		status = http.StatusUnprocessableEntity
	case api.KindInvalidArgument:
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
		s.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, dto.ErrorResponse{Error: api.PublicMessage(err)})
}
