package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/service"
)

type ClaimHandler struct {
	svc *service.ClaimService
}

func NewClaimHandler(svc *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{svc: svc}
}

type createClaimRequest struct {
	Profile string `json:"profile"`
}

// Create handles POST /api/claims
func (h *ClaimHandler) Create(c fiber.Ctx) error {
	userID, errMsg := actingUser(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_USER", errMsg)
	}

	var req createClaimRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}
	profile, errMsg := middleware.ValidateProfileName(req.Profile)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PROFILE", errMsg)
	}

	claim, err := h.svc.CreateClaim(c.Context(), userID, profile)
	if err != nil {
		return respondError(c, err)
	}

	Metrics.ClaimsCreated.WithLabelValues(profile).Inc()
	return c.Status(fiber.StatusCreated).JSON(claim)
}

// Get handles GET /api/claims/:claimId
func (h *ClaimHandler) Get(c fiber.Ctx) error {
	claimID, errMsg := middleware.ValidateClaimID(c.Params("claimId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CLAIM_ID", errMsg)
	}

	claim, err := h.svc.GetClaim(c.Context(), claimID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(claim)
}
