package constants

const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeProductInactive     = "PRODUCT_INACTIVE"
	ErrCodeDuplicateReference  = "DUPLICATE_REFERENCE"
	ErrCodeSignatureMismatch   = "SIGNATURE_MISMATCH"
	ErrCodeInvalidCallback     = "INVALID_CALLBACK"
	ErrCodeUnknownReference    = "UNKNOWN_REFERENCE"
	ErrCodeGatewayUnavailable  = "GATEWAY_UNAVAILABLE"
	ErrCodeConfiguration       = "CONFIGURATION_ERROR"
	ErrCodeReconciliation      = "RECONCILIATION_INCONSISTENCY"
	ErrCodeConfirmationExpired = "CONFIRMATION_NOT_FOUND"
	ErrCodeQuoteOutdated       = "QUOTE_OUTDATED"
	ErrCodeChannelUnavailable  = "CHANNEL_UNAVAILABLE"
	ErrCodeDatabase            = "DATABASE_ERROR"
	ErrCodeInvalidRequestBody  = "INVALID_REQUEST_BODY"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

var errorMessages = map[string]string{
	ErrCodeValidation:          "invalid amount or quantity",
	ErrCodeOutOfStock:          "not enough stock available",
	ErrCodeInsufficientBalance: "insufficient balance",
	ErrCodeProductNotFound:     "product not found",
	ErrCodeProductInactive:     "product is not available",
	ErrCodeDuplicateReference:  "payment reference already exists",
	ErrCodeSignatureMismatch:   "invalid signature",
	ErrCodeInvalidCallback:     "missing reference or status",
	ErrCodeUnknownReference:    "unknown payment reference",
	ErrCodeGatewayUnavailable:  "payment gateway unavailable",
	ErrCodeConfiguration:       "payment gateway is not configured",
	ErrCodeReconciliation:      "payment recorded but crediting failed",
	ErrCodeConfirmationExpired: "no pending purchase to confirm",
	ErrCodeQuoteOutdated:       "price changed since the quote, confirm the new total",
	ErrCodeChannelUnavailable:  "payment channel unavailable",
	ErrCodeDatabase:            "storage error",
	ErrCodeInvalidRequestBody:  "failed to parse request body",
	ErrCodeInternalError:       "internal server error",
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return errorMessages[ErrCodeInternalError]
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidRequestBody, ErrCodeSignatureMismatch,
		ErrCodeInvalidCallback, ErrCodeUnknownReference:
		return 400
	case ErrCodeProductNotFound, ErrCodeConfirmationExpired, ErrCodeChannelUnavailable:
		return 404
	case ErrCodeOutOfStock, ErrCodeInsufficientBalance, ErrCodeDuplicateReference,
		ErrCodeProductInactive, ErrCodeQuoteOutdated:
		return 409
	case ErrCodeGatewayUnavailable:
		return 502
	case ErrCodeConfiguration, ErrCodeReconciliation, ErrCodeDatabase, ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
