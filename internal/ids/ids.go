package ids

import "github.com/segmentio/ksuid"

// New returns a sortable random identifier.
func New() string {
	return ksuid.New().String()
}

// NewUserHandle returns the business-facing handle assigned at
// registration, distinct from both the numeric id and the login id.
func NewUserHandle() string {
	return "U" + ksuid.New().String()
}
