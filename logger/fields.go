package logger

// Standard field names for structured logging.
const (
	// Identity and context
	FieldSessionID = "session_id"
	FieldComponent = "component"

	// Type graph
	FieldType    = "type"
	FieldKind    = "kind"
	FieldAttrs   = "attrs"
	FieldFile    = "file"
	FieldDepth   = "depth"
	FieldPending = "pending"

	// IDL side
	FieldSymbol       = "symbol"
	FieldScope        = "scope"
	FieldRepositoryID = "repository_id"
	FieldUnit         = "unit"

	// Counts
	FieldCount = "count"

	// Errors
	FieldError = "error"
)
