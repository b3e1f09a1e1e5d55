package domain

// NotificationAction is an actionable affordance attached to a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is a user-visible alert raised when a staged result is ready.
type Notification struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Class   RequestClass         `json:"class"`
	Actions []NotificationAction `json:"actions"`
}
