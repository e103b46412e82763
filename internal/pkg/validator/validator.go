package validator

// Validator validates a struct based on its field tags.
type Validator interface {
	// Validate returns nil when data passes all rules. On rule failures it
	// returns an error that also implements FieldErrors.
	Validate(data any) error
}

// FieldErrors exposes per-field validation messages.
type FieldErrors interface {
	// Values returns field names mapped to human readable messages.
	Values() map[string]string
}
