package log

import "budgetmanager/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldActor       = "actor"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldCategoryID  = "category_id"
	FieldAccountID   = "account_id"
	FieldRuleID      = "rule_id"
	FieldImportToken = "import_token"
	FieldActivityID  = "activity_id"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentImport    = "import"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpImport   = "import"
	OpMirror   = "mirror"
	OpLock     = "lock"
	OpUnlock   = "unlock"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithActor(actor string) LogFields {
	if actor != "" {
		f[FieldActor] = actor
	}
	return f
}

// WithYearMonth adds the year and month of a budget period.
func (f LogFields) WithYearMonth(ym core.YearMonth) LogFields {
	f[FieldYear] = ym.Year
	f[FieldMonth] = ym.Month
	return f
}

func (f LogFields) WithCategory(id int64) LogFields {
	f[FieldCategoryID] = id
	return f
}

func (f LogFields) WithAccount(id int64) LogFields {
	f[FieldAccountID] = id
	return f
}

func (f LogFields) WithRule(id int64) LogFields {
	f[FieldRuleID] = id
	return f
}

func (f LogFields) WithImport(token string, accountID int64) LogFields {
	f[FieldImportToken] = token
	f[FieldAccountID] = accountID
	return f
}

// WithHTTPRequest adds HTTP request fields. Empty values are skipped.
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to alternating key/value arguments for slog.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
