package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// SessionUser identifies who is currently signed in on this device.
type SessionUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session carries device identity, role and permission-relevant state
// explicitly instead of module-level globals. It is built on role selection
// and torn down on role switch.
type Session struct {
	DeviceID  string      `json:"deviceId"`
	Role      Role        `json:"role"`
	User      SessionUser `json:"user"`
	StartedAt time.Time   `json:"startedAt"`
}

// LoggedStudent is one entry on the presence list teachers see.
type LoggedStudent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LoginTime time.Time `json:"loginTime"`
}
