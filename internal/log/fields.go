package log

// Common field names for structured logging
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
	FieldOperation  = "operation"
	FieldItemID     = "item_id"
	FieldItemName   = "item_name"
	FieldPriceCents = "price_cents"
	FieldCategory   = "category"
	FieldItemCount  = "item_count"
	FieldBackend    = "backend"
	FieldKey        = "key"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStore   = "store"
	ComponentStorage = "storage"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpAddItem        = "add_item"
	OpUpdateItem     = "update_item"
	OpDeleteItem     = "delete_item"
	OpToggle         = "toggle_purchased"
	OpClearPurchased = "clear_purchased"
	OpClearAll       = "clear_all"
	OpAddCategory    = "add_category"
	OpSetFilter      = "set_filter"
	OpToggleTheme    = "toggle_dark_mode"
	OpImport         = "import"
	OpExport         = "export"
	OpLoad           = "load"
	OpSave           = "save"
	OpShutdown       = "shutdown"
	OpStartup        = "startup"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithItem adds item-related fields
func (f LogFields) WithItem(id, name string, priceCents int64, category string) LogFields {
	f[FieldItemID] = id
	f[FieldItemName] = name
	f[FieldPriceCents] = priceCents
	f[FieldCategory] = category
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
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
