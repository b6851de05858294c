package watchlist

import (
	"regexp"
	"strings"

	"wingman/internal/domain"
)

const (
	FieldProjectHandle = "projectHandle"
	FieldAuth          = "auth"
	FieldPlatform      = "platform"

	handleMinLength = 2
)

var handleBodyRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateHandle reports every problem with handle, mirroring the form's field messages.
func ValidateHandle(handle string) []domain.FieldError {
	if strings.TrimSpace(handle) == "" {
		return []domain.FieldError{{Field: FieldProjectHandle, Message: "Project handle is required"}}
	}

	var errs []domain.FieldError

	if !strings.HasPrefix(handle, "@") {
		errs = append(errs, domain.FieldError{
			Field:   FieldProjectHandle,
			Message: "Project handle must start with @",
		})
	}

	if len(handle) < handleMinLength {
		errs = append(errs, domain.FieldError{
			Field:   FieldProjectHandle,
			Message: "Project handle must have at least 1 character after @",
		})
	}

	if !handleBodyRe.MatchString(strings.TrimPrefix(handle, "@")) {
		errs = append(errs, domain.FieldError{
			Field:   FieldProjectHandle,
			Message: "Project handle can only contain letters, numbers, and underscores",
		})
	}

	return errs
}

// SameHandle compares handles the way X does: case-insensitively.
func SameHandle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
