package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/StayNest-Travel/service-billing/internal/application"
	"github.com/StayNest-Travel/service-billing/internal/auth"
	"github.com/StayNest-Travel/service-billing/internal/middleware"
	"github.com/StayNest-Travel/service-billing/internal/response"
)

// OfferHandler handles HTTP requests for offer moderation and listing.
type OfferHandler struct {
	service *application.OfferService
}

// NewOfferHandler creates an OfferHandler.
func NewOfferHandler(service *application.OfferService) *OfferHandler {
	return &OfferHandler{service: service}
}

// RegisterRoutes registers offer routes. Moderation is admin-only; live
// listings are public.
func (h *OfferHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.GET("/hotels/:id/offers", h.ListLive)

	admin := r.Group("/admin/offers")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/pending", h.ListPending)
		admin.POST("/:id/approve", h.Approve)
		admin.POST("/:id/reject", h.Reject)
	}
}

// ListLive handles GET /api/v1/hotels/:id/offers.
func (h *OfferHandler) ListLive(c *gin.Context) {
	hotelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid hotel id")
		return
	}

	offers, err := h.service.ListLiveOffers(c.Request.Context(), hotelID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, offers)
}

// ListPending handles GET /api/v1/admin/offers/pending.
func (h *OfferHandler) ListPending(c *gin.Context) {
	offers, err := h.service.ListPendingOffers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, offers)
}

// Approve handles POST /api/v1/admin/offers/:id/approve.
func (h *OfferHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}

	dto, err := h.service.ApproveOffer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// Reject handles POST /api/v1/admin/offers/:id/reject.
func (h *OfferHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offer id")
		return
	}

	dto, err := h.service.RejectOffer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}
