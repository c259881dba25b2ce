package processor

import "github.com/klingon-exchange/duopool/internal/errors"

// checkedMul multiplies two unsigned 64-bit quantities, failing with
// ExpectedAmountMismatch rather than silently wrapping on overflow.
func checkedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	product := a * b
	if product/a != b {
		return 0, errors.Newf(errors.ExpectedAmountMismatch, "%d * %d overflows", a, b)
	}
	return product, nil
}

// checkedSub subtracts b from a, failing with ExpectedAmountMismatch rather
// than wrapping on underflow.
func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errors.Newf(errors.ExpectedAmountMismatch, "%d - %d underflows", a, b)
	}
	return a - b, nil
}
