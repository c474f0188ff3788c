package trade

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// OrderNumberGenerator produces business-facing order numbers
type OrderNumberGenerator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// FormatOrderNumber renders ORD-<year>-<seq>, zero padding seq to four digits
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%04d", year, seq)
}

// RandomSuffixSpace is the number of distinct random suffixes, 0000 to 9998
const RandomSuffixSpace = 9999

// RandomOrderNumbers draws a random four digit suffix per order.
// Numbers are not guaranteed unique; two orders in the same year collide
// with probability 1/9999.
type RandomOrderNumbers struct{}

// Next returns a random order number for now's year
func (RandomOrderNumbers) Next(_ context.Context, now time.Time) (string, error) {
	return FormatOrderNumber(now.Year(), rand.Int64N(RandomSuffixSpace)), nil
}
