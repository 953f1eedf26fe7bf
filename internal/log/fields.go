package log

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"

	FieldExpenseID    = "expense_id"
	FieldExpenseTitle = "expense_title"
	FieldAmountMinor  = "amount_minor"
	FieldCategory     = "category"
	FieldDate         = "date"
	FieldCurrency     = "currency"

	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"
	FieldRecordCount = "record_count"
	FieldFormat      = "format"
	FieldFile        = "file"
	FieldBytes       = "bytes"
	FieldChatID      = "chat_id"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentExpense   = "expense"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentSheets    = "sheets"
	ComponentBot       = "bot"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operation names.
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpList      = "list"
	OpAppend    = "append"
	OpAggregate = "aggregate"
	OpExport    = "export"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpParse     = "parse"
	OpFormat    = "format"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// Error type categories.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds structured attributes fluently.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError records err's message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithExpense adds the identifying fields of a record.
func (f LogFields) WithExpense(id, title string, amountMinor int64, category, date string) LogFields {
	f[FieldExpenseID] = id
	f[FieldExpenseTitle] = title
	f[FieldAmountMinor] = amountMinor
	f[FieldCategory] = category
	f[FieldDate] = date
	return f
}

// WithReport adds the window and size of a report.
func (f LogFields) WithReport(start, end string, records int) LogFields {
	f[FieldWindowStart] = start
	f[FieldWindowEnd] = end
	f[FieldRecordCount] = records
	return f
}

// WithExport adds the rendering format and the resulting artifact.
func (f LogFields) WithExport(format, file string) LogFields {
	f[FieldFormat] = format
	f[FieldFile] = file
	return f
}

func (f LogFields) WithBytes(n int64) LogFields {
	f[FieldBytes] = n
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
