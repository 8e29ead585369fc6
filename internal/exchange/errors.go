package exchange

import "errors"

// Sentinel errors forming the failure taxonomy from spec §4.1/§7.
// Retryable: network/5xx. NonRetryable: 4xx business rejections. Fatal:
// signature/credential errors, never retried blindly.
var (
	ErrMarketNotFound    = errors.New("market not found")
	ErrInsufficientFunds = errors.New("insufficient funds at venue")
	ErrInvalidTicker     = errors.New("invalid ticker")
	ErrMarketPaused      = errors.New("market paused")
	ErrOrderRejected     = errors.New("order rejected")
	ErrRetryable         = errors.New("transient venue error")
	ErrFatalSignature    = errors.New("fatal: signature rejected, check credentials")
)

// classify maps a venue error code (from a 4xx body) to its sentinel.
func classify(code string) error {
	switch code {
	case "insufficient_funds":
		return ErrInsufficientFunds
	case "invalid_ticker":
		return ErrInvalidTicker
	case "market_paused":
		return ErrMarketPaused
	case "order_rejected":
		return ErrOrderRejected
	default:
		return ErrOrderRejected
	}
}
