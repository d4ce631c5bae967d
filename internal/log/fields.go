package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldBackend    = "backend"
	FieldFile       = "file"
	FieldSheet      = "sheet"
	FieldRecordID   = "record_id"
	FieldIssueDate  = "issue_date"
	FieldSupplier   = "supplier"
	FieldAmount     = "amount"
	FieldRecords    = "records"
	FieldColumns    = "columns"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBackend = "backend"
	ComponentCLI     = "cli"
)
