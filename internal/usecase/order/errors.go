package order

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ustatop/ustatop-api/internal/httperr"
)

// lookupErr maps a repository read failure onto the error taxonomy: a
// missing row is not_found, anything else is a storage outage the
// caller reports as unavailable.
func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(httperr.CodeNotFound)
	}
	return httperr.ErrBusinessf(httperr.CodeUnavailable, "storage unavailable")
}
