package services

import "fmt"

// Error codes surfaced to callers in the response envelope.
const (
	CodeMissingFields    = "missing_required_fields"
	CodeInvalidAssetType = "invalid_asset_type"
	CodeInvalidAmount    = "invalid_amount"
	CodeAssetNotFound    = "asset_not_found"
	CodeAffidavitMissing = "affidavit_not_found"
	CodeSe7enUnreachable = "se7en_unreachable"
)

// ValidationError reports missing or malformed required input.
type ValidationError struct {
	Code   string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// NotFoundError reports an absent referenced entity.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return e.Code
}

// GatewayError reports a network or timeout failure reaching the se7en
// settlement service. It carries the underlying cause.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %v", CodeSe7enUnreachable, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
