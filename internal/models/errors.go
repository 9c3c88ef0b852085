package models

import "fmt"

// Validation rule codes, in the order the validator applies them.
const (
	RuleLedgerExists   = "ledger_exists"
	RuleCurrency       = "currency_supported"
	RuleExpenseType    = "expense_type"
	RuleNameOrCategory = "name_or_category"
	RuleContributions  = "contributions"
	RuleAmounts        = "non_negative_amounts"
	RuleImpact         = "financial_impact"
	RuleDate           = "date_format"
	RuleMemberName     = "member_name"
	RuleMemberSettled  = "member_settled"
)

// ValidationError reports a user-input problem with a transaction or member
// operation. Always recoverable; the Rule code lets callers map it to a
// specific user-facing response.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Rule, e.Message)
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// IntegrityError reports a broken internal invariant: money created or
// destroyed by a split, residual balance after settlement, or a non-zero net
// on an inactive member in strict mode. These indicate a bug upstream and must
// never be reported as success.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string {
	return "integrity violation: " + e.Message
}

// Integrityf builds an IntegrityError with a formatted message.
func Integrityf(format string, args ...any) *IntegrityError {
	return &IntegrityError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports an invalid option requested by a caller, such as
// an unknown money output format.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}
