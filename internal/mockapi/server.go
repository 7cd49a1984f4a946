// Package mockapi is an in-memory implementation of the shop backend's HTTP
// contract. It backs local development (cmd/shopdeck-mockapi) and the integration
// tests of the backend client and the console screens.
package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultTokenTTL = 12 * time.Hour
	defaultPageSize = 20
	maxPageSize     = 100

	ctxEmail = "userEmail"
	ctxRole  = "userRole"
)

// Options configure a Server.
type Options struct {
	Secret   string
	TokenTTL time.Duration
	Logger   *zap.Logger
	Store    *Store
}

// Server serves the backend contract from a Store.
type Server struct {
	store    *Store
	secret   []byte
	tokenTTL time.Duration
	log      *zap.Logger
	engine   *gin.Engine
}

// New builds a server. A nil Store loads the embedded seed.
func New(opts Options) (*Server, error) {
	store := opts.Store
	if store == nil {
		var err error
		store, err = NewStore(nil, nil)
		if err != nil {
			return nil, err
		}
	}
	secret := strings.TrimSpace(opts.Secret)
	if secret == "" {
		return nil, fmt.Errorf("token secret required")
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: ttl,
		log:      logger.Named("mockapi"),
	}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// IssueToken signs a token for email with role, expiring after ttl.
func (s *Server) IssueToken(email, role string, ttl time.Duration) (string, error) {
	now := s.store.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   email,
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	api := r.Group("/api")
	api.POST("/auth/login", s.login)
	api.GET("/categories", s.publicCategories)

	admin := api.Group("/admin", s.authenticate(), requireRoles("ADMIN"))
	admin.GET("/orders", s.listOrders)
	admin.GET("/orders/stats", s.orderStats)
	admin.GET("/orders/:id", s.getOrder)
	admin.PATCH("/orders/:id/status", s.updateOrderStatus)

	admin.GET("/products", s.listProducts)
	admin.GET("/products/low-stock", s.lowStock)
	admin.GET("/products/:id", s.getProduct)
	admin.POST("/products", s.createProduct)
	admin.PUT("/products/:id", s.updateProduct)
	admin.PATCH("/products/:id/toggle-active", s.toggleProduct)

	admin.GET("/categories", s.listCategories)
	admin.GET("/categories/:id", s.getCategory)
	admin.POST("/categories", s.createCategory)
	admin.PUT("/categories/:id", s.updateCategory)
	admin.PATCH("/categories/:id/toggle-active", s.toggleCategory)

	admin.GET("/customers", s.listCustomers)
	admin.GET("/customers/:id", s.getCustomer)
	admin.GET("/customers/:id/orders", s.customerOrders)
	admin.PATCH("/customers/:id/toggle-active", s.toggleCustomer)

	admin.GET("/settings", s.getSettings)
	admin.PATCH("/settings", s.patchSettings)
	admin.POST("/system/cache/clear", s.clearCache)

	admin.GET("/stock-movements", s.listMovements)
	admin.GET("/reports", s.report)
	admin.GET("/dashboard/summary", s.dashboardSummary)
	admin.GET("/dashboard/status-chart", s.statusChart)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, &apiError{status: http.StatusNotFound, code: "NOT_FOUND", message: "No such endpoint"})
	})
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("request_id", c.GetString("requestID")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// authenticate verifies the bearer token and stores the caller in the context.
func (s *Server) authenticate() gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.store.now))
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(c, &apiError{status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: "Authentication required"})
			return
		}
		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		})
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "Token expired"
			}
			writeError(c, &apiError{status: http.StatusUnauthorized, code: "UNAUTHORIZED", message: message})
			return
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)
		c.Set(ctxEmail, email)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// requireRoles rejects callers whose role is not in allowed.
func requireRoles(allowed ...string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		set[strings.ToUpper(strings.TrimSpace(r))] = struct{}{}
	}
	return func(c *gin.Context) {
		role := strings.ToUpper(strings.TrimSpace(c.GetString(ctxRole)))
		if _, ok := set[role]; !ok {
			writeError(c, &apiError{status: http.StatusForbidden, code: "FORBIDDEN", message: "Admin role required"})
			return
		}
		c.Next()
	}
}

func writeError(c *gin.Context, err error) {
	var ae *apiError
	if !errors.As(err, &ae) {
		ae = &apiError{status: http.StatusInternalServerError, code: "INTERNAL_ERROR", message: err.Error()}
	}
	body := gin.H{"code": ae.code, "message": ae.message}
	if len(ae.fields) > 0 {
		body["errors"] = ae.fields
	}
	c.AbortWithStatusJSON(ae.status, body)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid id"})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(c.Query("size"))
	if err != nil || size <= 0 {
		size = defaultPageSize
	}
	return page, min(size, maxPageSize)
}

// pageOf renders one page of all under key, Spring-style.
func pageOf[T any](key string, all []T, page, size int) gin.H {
	total := len(all)
	totalPages := (total + size - 1) / size
	start := min(page*size, total)
	end := min(start+size, total)
	items := make([]T, 0, end-start)
	items = append(items, all[start:end]...)
	return gin.H{
		key:             items,
		"totalElements": total,
		"totalPages":    totalPages,
		"number":        page,
		"size":          size,
	}
}

// respond writes v or the error.
func respond(c *gin.Context, v any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
