package errors

// Domain constructors for the ledger/transaction error taxonomy. Each
// returns an *AppError carrying one of the stable ERR_xxxx codes from
// codes.go, following the shape established in types.go.

// Authentication
func TokenExpired() *AppError {
	return &AppError{Type: ErrorTypeUnauthorized, Code: CodeExpiredToken, Message: "bearer token has expired", StatusCode: 401}
}

func TokenInvalid(reason string) *AppError {
	return (&AppError{Type: ErrorTypeUnauthorized, Code: CodeInvalidToken, Message: "bearer token is invalid", StatusCode: 401}).WithDetail("reason", reason)
}

// Authorization
func RoleRequired(role string) *AppError {
	return (&AppError{Type: ErrorTypeForbidden, Code: CodeInsufficientPermissions, Message: "role not permitted for this operation", StatusCode: 403}).WithDetail("requiredRole", role)
}

// Validation
func AmountNonPositive() *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: CodeInvalidAmount, Message: "amount must be greater than zero", StatusCode: 400}
}

func MissingAccount(field string) *AppError {
	return (&AppError{Type: ErrorTypeValidation, Code: CodeMissingField, Message: "required account reference is missing", StatusCode: 400}).WithDetail("field", field)
}

func CurrencyMismatch() *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: CodeInvalidValue, Message: "account currency does not match transaction currency", StatusCode: 400}
}

// Entity
func AccountNotFound(accountID string) *AppError {
	return (&AppError{Type: ErrorTypeNotFound, Code: CodeNotFound, Message: "account not found", StatusCode: 404}).WithDetail("accountId", accountID)
}

func AccountInactive(accountID string) *AppError {
	return (&AppError{Type: ErrorTypeValidation, Code: CodeAccountSuspended, Message: "account is not active", StatusCode: 422}).WithDetail("accountId", accountID)
}

func TransactionNotFound(id string) *AppError {
	return (&AppError{Type: ErrorTypeNotFound, Code: CodeNotFound, Message: "transaction not found", StatusCode: 404}).WithDetail("transactionId", id)
}

// Business
func InsufficientFunds() *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: CodeInsufficientFunds, Message: "insufficient funds for this operation", StatusCode: 422, Retryable: false}
}

func LimitExceeded(reason string) *AppError {
	return (&AppError{Type: ErrorTypeValidation, Code: CodeWithdrawalLimitExceeded, Message: "transaction limit exceeded", StatusCode: 422}).WithDetail("reason", reason)
}

func NotReversible(reason string) *AppError {
	return (&AppError{Type: ErrorTypeConflict, Code: CodeNotReversible, Message: "transaction is not reversible", StatusCode: 422}).WithDetail("reason", reason)
}

func AlreadyReversed() *AppError {
	return &AppError{Type: ErrorTypeConflict, Code: CodeAlreadyReversed, Message: "transaction already has a non-failed reversal", StatusCode: 409}
}

func DuplicateIdempotency() *AppError {
	return &AppError{Type: ErrorTypeConflict, Code: CodeDuplicateIdempotency, Message: "a transaction with this idempotency key already exists", StatusCode: 409}
}

// Upstream
func UpstreamUnavailable(service string) *AppError {
	return (&AppError{Type: ErrorTypeExternal, Code: CodeDueAPIError, Message: "upstream service unavailable", StatusCode: 503, Retryable: true}).WithDetail("service", service)
}

func CircuitOpen(service string) *AppError {
	return (&AppError{Type: ErrorTypeExternal, Code: CodeCircuitOpen, Message: "circuit breaker is open", StatusCode: 503, Retryable: false}).WithDetail("service", service)
}

func UpstreamRejected(reason string) *AppError {
	return (&AppError{Type: ErrorTypeExternal, Code: CodeOperationFailed, Message: "upstream rejected the request", StatusCode: 422}).WithDetail("reason", reason)
}

// Internal
func ManualActionRequired(transactionID string) *AppError {
	return (&AppError{Type: ErrorTypeInternal, Code: CodeManualActionRequired, Message: "compensation failed, manual action required", StatusCode: 500}).WithDetail("transactionId", transactionID)
}

// Generic helpers kept from the teacher's constructor style, returning
// *AppError so callers compose uniformly with WithDetail/Is/Unwrap.
func ValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: CodeValidationFailed, Message: message, StatusCode: 400}
}

func NotFound(resource string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Code: CodeNotFound, Message: resource + " not found", StatusCode: 404}
}

func Internal(message string) *AppError {
	return &AppError{Type: ErrorTypeInternal, Code: CodeInternalError, Message: message, StatusCode: 500}
}

func Conflict(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Code: CodeConflict, Message: message, StatusCode: 409}
}
