package scheduling

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrEmptyServiceList      = errors.New("appointment requires at least one service")
	ErrOutsideWorkingHours   = errors.New("interval is outside working hours")
	ErrRecurrenceEndRequired = errors.New("recurrence end date is required")
	ErrRecurrenceRange       = errors.New("recurrence range exceeds one year")
	ErrBlockRecurrence       = errors.New("blocks cannot recur")
	ErrPersistenceConflict   = errors.New("persistence conflict: optimistic retries exhausted")
)

// ConflictError — ожидаемый исход проверки, а не исключение:
// интервал занят, виновник — запись с наименьшим StartsAt.
type ConflictError struct {
	ConflictingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scheduling conflict with appointment %s", e.ConflictingID)
}

// AsConflict возвращает ConflictError, если err им является.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
