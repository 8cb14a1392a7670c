package order

import (
	"fmt"
	"time"
)

// NumberGenerator produces human-facing order numbers of the form
// ORD-<unixMillis>-<sequence zero-padded to 4 digits>. The sequence value
// comes from the store's monotonic counter; uniqueness is ultimately
// guaranteed by the unique index on orders.order_number, not by this format.
type NumberGenerator struct {
	now func() time.Time
}

func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{now: time.Now}
}

// NewNumberGeneratorWithClock is used by tests to pin the timestamp component.
func NewNumberGeneratorWithClock(now func() time.Time) *NumberGenerator {
	return &NumberGenerator{now: now}
}

func (g *NumberGenerator) Generate(seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", g.now().UnixMilli(), seq)
}
