package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/StayNest-Travel/service-billing/internal/application"
	"github.com/StayNest-Travel/service-billing/internal/auth"
	"github.com/StayNest-Travel/service-billing/internal/middleware"
	"github.com/StayNest-Travel/service-billing/internal/response"
)

// GenerateRequest is the request body for a manual invoicing run. Zero
// values default to the current period.
type GenerateRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// CommissionHandler handles admin HTTP requests for commission billing.
type CommissionHandler struct {
	service *application.CommissionService
}

// NewCommissionHandler creates a CommissionHandler.
func NewCommissionHandler(service *application.CommissionService) *CommissionHandler {
	return &CommissionHandler{service: service}
}

// RegisterRoutes registers admin billing routes.
func (h *CommissionHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin/commissions")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("", h.List)
		admin.POST("/generate", h.Generate)
		admin.POST("/refresh-overdue", h.RefreshOverdue)
		admin.POST("/:id/pay", h.MarkPaid)
	}
}

// List handles GET /api/v1/admin/commissions. With month and year query
// params it returns one period; otherwise a paginated listing.
func (h *CommissionHandler) List(c *gin.Context) {
	month, _ := strconv.Atoi(c.Query("month"))
	year, _ := strconv.Atoi(c.Query("year"))
	if month > 0 && year > 0 {
		invoices, err := h.service.ListByPeriod(c.Request.Context(), month, year)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, invoices)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	invoices, total, err := h.service.ListCommissions(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, invoices, total, page, limit)
}

// Generate handles POST /api/v1/admin/commissions/generate.
func (h *CommissionHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Generate(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RefreshOverdue handles POST /api/v1/admin/commissions/refresh-overdue.
func (h *CommissionHandler) RefreshOverdue(c *gin.Context) {
	result, err := h.service.RefreshOverdueStatus(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// MarkPaid handles POST /api/v1/admin/commissions/:id/pay.
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid commission id")
		return
	}

	dto, err := h.service.MarkPaid(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
