package legal

import (
	"errors"

	"hrpayroll/internal/domain/apperr"
)

var ErrNoEffective = errors.New("no effective legal configuration")

// Failure converts a provider error into the typed calculation failure. Errors
// that are not a missing configuration are returned unchanged.
func Failure(err error) error {
	if errors.Is(err, ErrNoEffective) || errors.Is(err, apperr.ErrNotFound) {
		return apperr.New(apperr.KindNoLegalConfig, "no effective legal configuration")
	}
	return err
}
