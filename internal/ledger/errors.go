package ledger

import (
	"errors"
	"fmt"

	"github.com/iliyamo/soulspace-ledger/internal/repository"
)

var (
	// ErrUnauthorizedUser means the user id does not resolve to a user.
	ErrUnauthorizedUser = errors.New("unauthorized user")
	// ErrInvalidEntry rejects a journal entry with a blank message, an
	// oversized message or an unknown mood.
	ErrInvalidEntry = errors.New("invalid journal entry")
	// ErrInvalidStats rejects a stats overwrite that would move a counter
	// backwards or is otherwise malformed.
	ErrInvalidStats = errors.New("invalid stats")
	// ErrInvalidQuote rejects a client-supplied quote that cannot be stored.
	ErrInvalidQuote = errors.New("invalid quote")
	// ErrStorage wraps any persistence failure.
	ErrStorage = errors.New("storage failure")
	// ErrProviderUnavailable is returned by quote suppliers. The ledger never
	// surfaces it; it substitutes the fallback quote.
	ErrProviderUnavailable = errors.New("quote provider unavailable")
)

// storeErr translates a repository error into a ledger error.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrUnknownUser) {
		return fmt.Errorf("%s: %w", op, ErrUnauthorizedUser)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
