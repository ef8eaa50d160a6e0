package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxUserIDLen   = 64  // claims.user_id VARCHAR(64)
	MaxProfileLen  = 64  // claims.profile VARCHAR(64)
	MaxFilenameLen = 255 // assets.original_filename VARCHAR(255)
)

var (
	// claimIDRe matches the UUIDs the claim service issues.
	claimIDRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	// userIDRe matches opaque user identifiers from the auth layer.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// profileRe matches upload profile names.
	profileRe = regexp.MustCompile(`^[a-z0-9_]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateClaimID checks that a claim ID is a well-formed UUID.
func ValidateClaimID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "claimId is required"
	}
	if !claimIDRe.MatchString(id) {
		return "", "claimId must be a UUID"
	}
	return id, ""
}

// ValidateUserID checks that a user ID is well-formed and within DB limits.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "userId is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "userId must be at most 64 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "userId contains invalid characters"
	}
	return id, ""
}

// ValidateProfileName checks that a profile name is well-formed. Whether the
// profile exists is the claim service's concern, not the transport's.
func ValidateProfileName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "profile is required"
	}
	if len(name) > MaxProfileLen {
		return "", "profile must be at most 64 characters"
	}
	if !profileRe.MatchString(name) {
		return "", "profile contains invalid characters"
	}
	return name, ""
}

// ValidateFilename trims, strips any path components and truncates to DB
// limits. Returns the empty string for inputs with no usable name.
func ValidateFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > MaxFilenameLen {
		name = name[:MaxFilenameLen]
	}
	return name
}
