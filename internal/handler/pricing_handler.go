package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/StayNest-Travel/service-billing/internal/application"
	"github.com/StayNest-Travel/service-billing/internal/auth"
	"github.com/StayNest-Travel/service-billing/internal/middleware"
	"github.com/StayNest-Travel/service-billing/internal/response"
)

const dateLayout = "2006-01-02"

// QuoteRequest is the request body for a price quote.
type QuoteRequest struct {
	HotelID    uuid.UUID `json:"hotel_id" binding:"required"`
	RoomTypeID uuid.UUID `json:"room_type_id" binding:"required"`
	CheckIn    string    `json:"check_in" binding:"required"`
	CheckOut   string    `json:"check_out" binding:"required"`
	CouponCode string    `json:"coupon_code"`
}

// PricingHandler handles HTTP requests for price quotes.
type PricingHandler struct {
	service *application.PricingService
}

// NewPricingHandler creates a PricingHandler.
func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// RegisterRoutes registers pricing routes. Quotes are public; an
// authenticated user is attached when a token is present.
func (h *PricingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	pricing := r.Group("/pricing")
	pricing.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		pricing.POST("/quote", h.Quote)
	}
}

// Quote handles POST /api/v1/pricing/quote.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		response.BadRequest(c, "check_in must be a YYYY-MM-DD date")
		return
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		response.BadRequest(c, "check_out must be a YYYY-MM-DD date")
		return
	}

	userID, _ := middleware.GetUserID(c)
	breakdown, err := h.service.CalculatePrice(c.Request.Context(), application.CalculatePriceRequest{
		HotelID:    req.HotelID,
		RoomTypeID: req.RoomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		CouponCode: req.CouponCode,
		UserID:     userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, breakdown)
}
