package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/service"
)

type RateLimitHandler struct {
	svc *service.RateLimitService
}

func NewRateLimitHandler(svc *service.RateLimitService) *RateLimitHandler {
	return &RateLimitHandler{svc: svc}
}

// Get handles GET /api/ratelimit?profile=X — remaining quota for the acting
// user on a profile.
func (h *RateLimitHandler) Get(c fiber.Ctx) error {
	userID, errMsg := actingUser(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_USER", errMsg)
	}
	profile, errMsg := middleware.ValidateProfileName(fiber.Query[string](c, "profile"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PROFILE", errMsg)
	}

	info, err := h.svc.GetInfo(c.Context(), userID, profile)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}
