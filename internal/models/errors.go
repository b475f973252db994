package models

// Validation failure reasons, also used as metric labels
const (
	ReasonDateFormat = "date_format"
	ReasonStation    = "station"
	ReasonDateRange  = "date_range"
)

// User facing validation messages
const (
	MsgInvalidDateFormat = "Invalid date format. Please use YYYY-MM-DD."
	MsgInvalidStation    = "Invalid station ID."
	MsgDateOutOfRange    = "Dates out of range. Please use dates within the dataset's range."
)

// ValidationError represents a rejected request parameter
type ValidationError struct {
	Reason  string
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// NewDateFormatError reports a date that is not YYYY-MM-DD
func NewDateFormatError(field, value string) *ValidationError {
	return &ValidationError{Reason: ReasonDateFormat, Field: field, Value: value, Message: MsgInvalidDateFormat}
}

// NewStationError reports an unknown station id
func NewStationError(value string) *ValidationError {
	return &ValidationError{Reason: ReasonStation, Field: "station", Value: value, Message: MsgInvalidStation}
}

// NewDateRangeError reports a date outside the dataset range
func NewDateRangeError(field, value string) *ValidationError {
	return &ValidationError{Reason: ReasonDateRange, Field: field, Value: value, Message: MsgDateOutOfRange}
}
