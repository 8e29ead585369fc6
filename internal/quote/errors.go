package quote

import "errors"

var (
	ErrTooFewLegs          = errors.New("too few legs")
	ErrInvalidProbability  = errors.New("invalid probability")
	ErrInvalidStake        = errors.New("invalid stake")
	ErrEnvironmentMismatch = errors.New("environment mismatch")
)
