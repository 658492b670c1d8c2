package harvest

import (
	"fmt"

	"OAIHealthCheck/internal/domain"
)

// ConfirmThreshold is the largest limit that needs no confirmation.
const ConfirmThreshold = 5000

// RequiresConfirmation reports whether limit is above the threshold.
func RequiresConfirmation(limit int) bool {
	return limit > ConfirmThreshold
}

// CheckConfirmation asks the operator to prove they know which repository
// they are about to mass-harvest by repeating its identifier verbatim. It is
// friction, not access control.
func CheckConfirmation(limit int, identity *domain.RepositoryIdentity, confirmation string) error {
	if !RequiresConfirmation(limit) {
		return nil
	}
	if identity == nil {
		return domain.ErrIdentityRequired
	}
	expected, ok := identity.RepositoryIdentifier.Text()
	if !ok || expected == "" {
		return domain.ErrConfirmationUnavailable
	}
	if confirmation == "" {
		return fmt.Errorf("limit %d above %d: %w", limit, ConfirmThreshold, domain.ErrConfirmationRequired)
	}
	if confirmation != expected {
		return domain.ErrConfirmationMismatch
	}
	return nil
}
