package log

// Field names shared by every component's log records.
const (
	FieldComponent     = "component"
	FieldRunID         = "run_id"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldOwnerID       = "owner_id"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldMonth         = "month"
	FieldPosted        = "posted"
	FieldPresent       = "present"
	FieldAdded         = "added"
	FieldSkipped       = "skipped"
	FieldArchive       = "archive"
	FieldFiles         = "files"
	FieldBackend       = "backend"
	FieldDuration      = "duration_ms"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentCLI       = "cli"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentRecurring = "recurring"
	ComponentImport    = "import"
	ComponentSnapshot  = "snapshot"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
)
