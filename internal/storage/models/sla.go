package models

import "time"

// SLA is a service-level policy that computes deadlines against a calendar.
// Only CalendarID is touched by this service: the default-calendar enforcer
// repairs it whenever it is empty or points at a deleted calendar.
type SLA struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CalendarID string    `json:"calendar_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
