package otp

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"strconv"
)

// Generator produces fixed-width numeric codes.
type Generator interface {
	Generate() string
}

// RangeGenerator draws uniformly from [Min, Max]. Both bounds must have the
// same number of digits for the output to be fixed width.
type RangeGenerator struct {
	Min int
	Max int
}

// NewGenerator returns the 4-digit generator (1000–9999).
func NewGenerator() RangeGenerator {
	return RangeGenerator{Min: 1000, Max: 9999}
}

func (g RangeGenerator) Generate() string {
	span := int64(g.Max - g.Min + 1)
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		// crypto/rand does not fail on supported platforms; stay uniform anyway.
		return strconv.FormatInt(int64(g.Min)+mrand.Int64N(span), 10)
	}
	return strconv.FormatInt(int64(g.Min)+n.Int64(), 10)
}
