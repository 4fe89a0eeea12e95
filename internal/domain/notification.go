package domain

import "time"

// NotificationKind selects how a notification is styled.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient user-facing message.
type Notification struct {
	ID      string           `json:"id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	ShownAt time.Time        `json:"shown_at"`
	// Dismissed is set on the event emitted when the message is taken down.
	Dismissed bool `json:"dismissed,omitempty"`
}

// ControlState is the label and enabled flag of a form's submit control.
type ControlState struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}
