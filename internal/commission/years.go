package commission

import (
	"strconv"
	"time"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/format"
)

// YearOptions lists the selectable years from creationYear through the
// year of now, ascending. An unknown (<= 0) or future creation year
// collapses to a single option for the current year.
func YearOptions(creationYear int, now time.Time) []domain.YearOption {
	current := now.Year()
	if creationYear <= 0 || creationYear > current {
		creationYear = current
	}

	opts := make([]domain.YearOption, 0, current-creationYear+1)
	for y := creationYear; y <= current; y++ {
		id := strconv.Itoa(y)
		opts = append(opts, domain.YearOption{ID: id, Label: id})
	}
	return opts
}

// CreationYear reads the account creation year of u, falling back to the
// year of now when it is absent or unparseable.
func CreationYear(u *domain.User, now time.Time) int {
	if u == nil {
		return now.Year()
	}
	if y := format.YearOf(u.CreatedAt); y > 0 {
		return y
	}
	return now.Year()
}
