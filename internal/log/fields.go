package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldBillID    = "bill_id"
	FieldBillIDs   = "bill_ids"
	FieldPaymentID = "payment_id"
	FieldAmount    = "amount"
	FieldBalance   = "balance"
	FieldRequired  = "required"
	FieldCount     = "count"
	FieldDate      = "date"
	FieldEventID   = "event_id"
	FieldEventKind = "event_kind"
	FieldCommand   = "command"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentLedger  = "ledger"
	ComponentREPL    = "repl"
	ComponentJournal = "journal"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpCashIn   = "cash_in"
	OpPay      = "pay"
	OpSchedule = "schedule"
	OpRecord   = "record"
	OpPublish  = "publish"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeUsage             = "usage_error"
	ErrorTypeValidation        = "validation_error"
	ErrorTypeNotFound          = "not_found_error"
	ErrorTypeInvalidState      = "invalid_state_error"
	ErrorTypeInsufficientFunds = "insufficient_funds_error"
	ErrorTypeDateFormat        = "date_format_error"
	ErrorTypeDateOrder         = "date_order_error"
	ErrorTypeDatabase          = "database_error"
	ErrorTypeNetwork           = "network_error"
	ErrorTypeInternal          = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBill adds bill id and amount
func (f LogFields) WithBill(id int, amount int64) LogFields {
	f[FieldBillID] = id
	f[FieldAmount] = amount
	return f
}

// WithBalance adds the ledger balance
func (f LogFields) WithBalance(balance int64) LogFields {
	f[FieldBalance] = balance
	return f
}

// With adds an arbitrary field
func (f LogFields) With(key string, value any) LogFields {
	f[key] = value
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
