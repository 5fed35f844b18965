package service

import (
	"errors"

	"github.com/yourorg/rentalhub/internal/domain"
)

// repoError keeps the sentinel taxonomy intact on repository failures.
// Not-found and forbidden pass through; anything else becomes ErrInternal so
// driver errors never reach a response body.
func repoError(err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
		return err
	}
	return domain.ErrInternal
}
