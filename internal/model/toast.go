package model

import "time"

// ToastType selects the styling of a toast.
type ToastType string

const (
	ToastTypeSuccess ToastType = "success"
	ToastTypeError   ToastType = "error"
	ToastTypeWarning ToastType = "warning"
	ToastTypeInfo    ToastType = "info"
)

// DefaultToastDuration is used when a draft does not set a duration.
const DefaultToastDuration = 4000 * time.Millisecond

// ToastDraft is a transient message before the toast store assigns an id.
// A zero Type means info; a zero Duration means DefaultToastDuration.
// A negative Duration keeps the toast until it is removed explicitly.
type ToastDraft struct {
	Type     ToastType
	Title    string
	Message  string
	Duration time.Duration
}

// Toast is an ephemeral message that removes itself after Duration.
type Toast struct {
	ID        string
	Type      ToastType
	Title     string
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}
