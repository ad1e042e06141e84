package log

// Field names shared between the logger and the HTTP request log, so the
// two binaries' output stays greppable under one vocabulary.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
)

// Component names for the binaries.
const (
	ComponentApp    = "app"
	ComponentExport = "export"
)
