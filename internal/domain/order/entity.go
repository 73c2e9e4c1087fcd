package order

import (
	"time"

	"github.com/ustatop/ustatop-api/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// Apply mutates the order for an already-authorized transition. The
// repository persists the same fields with a compare-and-swap on the
// previous status.
func Apply(o *models.Order, to Status, now time.Time) {
	o.Status = string(to)
	o.UpdatedAt = now

	switch to {
	case StatusCompleted:
		o.CompletedAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
	}
}
