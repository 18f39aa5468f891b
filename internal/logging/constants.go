package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldFileID     = "file_id"
	FieldFormat     = "format"
	FieldMIMEType   = "mime_type"
	FieldParser     = "parser"
	FieldSheet      = "sheet"
	FieldRow        = "row"
	FieldLine       = "line"
	FieldCode       = "code"
	FieldCategory   = "category"
	FieldReason     = "reason"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldDelimiter  = "delimiter"
	FieldCurrency   = "currency"
	FieldAttempt    = "attempt"
	FieldModel      = "model"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldSize       = "size"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
)
