package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUser       = "user"
	FieldKind       = "kind"
	FieldRecordID   = "record_id"
)

// Standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentLedger  = "ledger"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentInsight = "insight"
)
