package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/workshoplabs/refgate/internal/backoffice"
	"github.com/workshoplabs/refgate/internal/logger"
	"github.com/workshoplabs/refgate/internal/refdata"
)

// Server is the HTTP surface consumed by the back-office SPA: cached
// reference and search endpoints, cache administration, and metrics.
type Server struct {
	svc    *refdata.Service
	router *gin.Engine
}

// Options configures a Server.
type Options struct {
	Service *refdata.Service
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	s := &Server{svc: opts.Service}
	s.setupRouter(opts.Metrics)
	return s
}

func (s *Server) setupRouter(metrics http.Handler) {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog(), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	api := r.Group("/api")
	{
		api.GET("/vehicle-types", s.handleVehicleTypes)
		api.GET("/makers", s.handleMakers)
		api.GET("/categories", s.handleCategories)
		api.GET("/vendors", s.handleVendors)
		api.GET("/vendors/:id/feature-prices", s.handleFeaturePrices)
		api.GET("/products", s.handleProducts)
		api.GET("/customers", s.handleCustomers)

		admin := api.Group("/cache")
		{
			admin.POST("/invalidate", s.handleInvalidate)
			admin.POST("/clear", s.handleClear)
		}
	}

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLog tags each request with an ID and logs its outcome.
func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header("X-Request-ID", rid)
		start := time.Now()
		c.Next()
		logger.Infof("http: %s %s -> %d (%s) rid=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start).Round(time.Millisecond), rid)
	}
}

// cors allows the SPA, served from another origin, to call the gateway.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func listParamsFromQuery(c *gin.Context) backoffice.ListParams {
	p := backoffice.ListParams{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
	}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 {
		p.PageSize = v
	}
	if f := c.Query("fields"); f != "" {
		p.Fields = strings.Split(f, ",")
	}
	return p
}

func upstreamStatus(err error) int {
	if errors.Is(err, backoffice.ErrUpstream) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) handleVehicleTypes(c *gin.Context) {
	items, err := s.svc.VehicleTypes(c.Request.Context())
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleMakers(c *gin.Context) {
	items, err := s.svc.Makers(c.Request.Context())
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleCategories(c *gin.Context) {
	items, err := s.svc.Categories(c.Request.Context())
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleVendors(c *gin.Context) {
	items, count, err := s.svc.Vendors(c.Request.Context(), listParamsFromQuery(c))
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "count": count})
}

func (s *Server) handleFeaturePrices(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid vendor id"})
		return
	}
	items, err := s.svc.FeaturePrices(c.Request.Context(), id)
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleProducts(c *gin.Context) {
	items, count, err := s.svc.Products(c.Request.Context(), listParamsFromQuery(c))
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "count": count})
}

func (s *Server) handleCustomers(c *gin.Context) {
	term := c.Query("search")
	if term == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "search term required"})
		return
	}
	items, err := s.svc.SearchCustomers(c.Request.Context(), term)
	if err != nil {
		c.JSON(upstreamStatus(err), errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

type invalidateRequest struct {
	Keys []string `json:"keys" binding:"required"`
}

func (s *Server) handleInvalidate(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "keys required"})
		return
	}
	s.svc.Invalidate(req.Keys...)
	c.JSON(http.StatusOK, gin.H{"invalidated": len(req.Keys)})
}

func (s *Server) handleClear(c *gin.Context) {
	s.svc.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
