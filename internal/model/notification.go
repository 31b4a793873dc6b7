package model

import "time"

type NotificationType string

const (
	NotificationClassReminder NotificationType = "class_reminder"
	NotificationAssignmentDue NotificationType = "assignment_due"
	NotificationGeneral       NotificationType = "general"
)

// ScheduledNotification is a pending reminder. It lives only in process
// memory for the lifetime of its timer and is not persisted across restarts.
type ScheduledNotification struct {
	ID            string
	Title         string
	Message       string
	ScheduledTime time.Time
	Type          NotificationType
	Payload       map[string]string
}

// InAppNotification is the fallback shown inside the app when platform
// delivery is unavailable.
type InAppNotification struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Type      NotificationType  `json:"type"`
	CreatedAt time.Time         `json:"createdAt"`
	Read      bool              `json:"read"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// NotificationSettings is the persisted per-profile notification preferences
// document.
type NotificationSettings struct {
	ClassReminders   bool `json:"classReminders"`
	AssignmentAlerts bool `json:"assignmentAlerts"`
	LeadMinutes      int  `json:"leadMinutes"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		ClassReminders:   true,
		AssignmentAlerts: true,
		LeadMinutes:      10,
	}
}
