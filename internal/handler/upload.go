package handler

import (
	"io"

	"github.com/gofiber/fiber/v3"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/apperr"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/middleware"
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/service"
)

// maxImageBytes caps the accepted request body; profile dimension limits do
// the fine-grained policing.
const maxImageBytes = 25 << 20

type UploadHandler struct {
	svc *service.UploadService
}

func NewUploadHandler(svc *service.UploadService) *UploadHandler {
	return &UploadHandler{svc: svc}
}

// UploadImage handles POST /api/uploads/:claimId — the synchronous image
// flow. The file arrives as multipart field "file".
func (h *UploadHandler) UploadImage(c fiber.Ctx) error {
	userID, errMsg := actingUser(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_USER", errMsg)
	}
	claimID, errMsg := middleware.ValidateClaimID(c.Params("claimId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CLAIM_ID", errMsg)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FILE", "Multipart field 'file' is required")
	}
	if fileHeader.Size > maxImageBytes {
		return middleware.ErrorResponse(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the 25MB limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "UNREADABLE_FILE", "Could not read uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "UNREADABLE_FILE", "Could not read uploaded file")
	}

	filename := middleware.ValidateFilename(fileHeader.Filename)

	result, err := h.svc.ProcessUpload(c.Context(), claimID, userID, filename, data)
	if err != nil {
		Metrics.UploadsTotal.WithLabelValues("image", outcomeLabel(err)).Inc()
		return respondError(c, err)
	}

	Metrics.UploadsTotal.WithLabelValues("image", "committed").Inc()
	return c.Status(fiber.StatusCreated).JSON(result)
}

type directUploadRequest struct {
	Filename string `json:"filename"`
}

// CreateDirect handles POST /api/uploads/:claimId/direct — the asynchronous
// video flow. Returns the provider upload target; readiness arrives later
// through the reconciler.
func (h *UploadHandler) CreateDirect(c fiber.Ctx) error {
	userID, errMsg := actingUser(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_USER", errMsg)
	}
	claimID, errMsg := middleware.ValidateClaimID(c.Params("claimId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CLAIM_ID", errMsg)
	}

	var req directUploadRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be JSON")
	}

	upload, err := h.svc.CreateDirectUpload(c.Context(), claimID, userID, middleware.ValidateFilename(req.Filename))
	if err != nil {
		Metrics.UploadsTotal.WithLabelValues("video", outcomeLabel(err)).Inc()
		return respondError(c, err)
	}

	Metrics.UploadsTotal.WithLabelValues("video", "accepted").Inc()
	return c.Status(fiber.StatusCreated).JSON(upload)
}

func outcomeLabel(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindPolicyRejection:
		return "rejected"
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindAuthorization, apperr.KindNotFound:
		return "denied"
	default:
		return "failed"
	}
}
