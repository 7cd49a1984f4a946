package mockapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/five82/shopdeck/internal/backend"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid payload"})
		return
	}
	role, ok := s.store.authenticate(req.Email, req.Password)
	if !ok {
		writeError(c, &apiError{status: http.StatusUnauthorized, code: "BAD_CREDENTIALS", message: "Invalid email or password"})
		return
	}
	token, err := s.IssueToken(req.Email, role, s.tokenTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token, "tokenType": "Bearer", "role": role})
}

func (s *Server) publicCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Categories(CategoryFilter{Active: "true", Sort: "name", Dir: "asc"}))
}

// Orders

func (s *Server) listOrders(c *gin.Context) {
	page, size := pageParams(c)
	orders := s.store.Orders(OrderFilter{Status: c.Query("status"), ID: c.Query("id"), Sort: c.Query("sort")})
	c.JSON(http.StatusOK, pageOf("content", orders, page, size))
}

func (s *Server) orderStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.OrderStats())
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := s.store.Order(id)
	respond(c, order, err)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalid(map[string]string{"status": "required"}))
		return
	}
	order, err := s.store.UpdateOrderStatus(id, req.Status, c.GetString(ctxEmail))
	respond(c, order, err)
}

// Products

func (s *Server) listProducts(c *gin.Context) {
	page, size := pageParams(c)
	categoryID, _ := strconv.ParseInt(c.Query("categoryId"), 10, 64)
	products := s.store.Products(ProductFilter{
		Q:          c.Query("q"),
		Active:     c.Query("active"),
		CategoryID: categoryID,
		Sort:       c.Query("sort"),
	})
	c.JSON(http.StatusOK, pageOf("content", products, page, size))
}

func (s *Server) lowStock(c *gin.Context) {
	page, size := pageParams(c)
	threshold, err := strconv.Atoi(c.Query("threshold"))
	if err != nil || threshold < 0 {
		threshold = 10
	}
	c.JSON(http.StatusOK, pageOf("content", s.store.LowStock(threshold, c.Query("sort")), page, size))
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := s.store.Product(id)
	respond(c, product, err)
}

func (s *Server) createProduct(c *gin.Context) {
	var in backend.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid payload"})
		return
	}
	product, err := s.store.CreateProduct(in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in backend.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid payload"})
		return
	}
	product, err := s.store.UpdateProduct(id, in, c.GetString(ctxEmail))
	respond(c, product, err)
}

func (s *Server) toggleProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := s.store.ToggleProduct(id)
	respond(c, product, err)
}

func (s *Server) listMovements(c *gin.Context) {
	page, size := pageParams(c)
	productID, _ := strconv.ParseInt(c.Query("productId"), 10, 64)
	c.JSON(http.StatusOK, pageOf("content", s.store.Movements(productID, c.Query("sort")), page, size))
}

// Categories

func (s *Server) listCategories(c *gin.Context) {
	page, size := pageParams(c)
	categories := s.store.Categories(CategoryFilter{
		Q:      c.Query("q"),
		Active: c.Query("active"),
		Sort:   c.Query("sort"),
		Dir:    c.Query("dir"),
	})
	c.JSON(http.StatusOK, pageOf("items", categories, page, size))
}

func (s *Server) getCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := s.store.Category(id)
	respond(c, category, err)
}

func (s *Server) createCategory(c *gin.Context) {
	var in backend.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid payload"})
		return
	}
	category, err := s.store.CreateCategory(in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in backend.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid payload"})
		return
	}
	category, err := s.store.UpdateCategory(id, in)
	respond(c, category, err)
}

func (s *Server) toggleCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	category, err := s.store.ToggleCategory(id)
	respond(c, category, err)
}

// Customers

func (s *Server) listCustomers(c *gin.Context) {
	page, size := pageParams(c)
	c.JSON(http.StatusOK, pageOf("content", s.store.Customers(c.Query("q"), c.Query("active")), page, size))
}

func (s *Server) getCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	customer, err := s.store.Customer(id)
	respond(c, customer, err)
}

func (s *Server) customerOrders(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := s.store.Customer(id); err != nil {
		writeError(c, err)
		return
	}
	page, size := pageParams(c)
	orders := s.store.Orders(OrderFilter{CustomerID: id, Sort: c.Query("sort")})
	c.JSON(http.StatusOK, pageOf("content", orders, page, size))
}

func (s *Server) toggleCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	customer, err := s.store.ToggleCustomer(id)
	respond(c, customer, err)
}

// Settings and system

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Settings())
}

func (s *Server) patchSettings(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, &apiError{status: http.StatusBadRequest, code: "BAD_REQUEST", message: "Invalid payload"})
		return
	}
	settings, err := s.store.PatchSettings(patch)
	respond(c, settings, err)
}

func (s *Server) clearCache(c *gin.Context) {
	s.store.ClearCache()
	c.Status(http.StatusNoContent)
}

// Dashboard

func (s *Server) dashboardSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Summary())
}

func (s *Server) statusChart(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.StatusChart(c.Query("range")))
}
