// Package queue defines message payloads exchanged over the message broker
// and the publisher that sends them.
package queue

// StaffProvisionedQueue is the durable queue staff.provisioned events go to.
const StaffProvisionedQueue = "staff.provisioned"

// StaffProvisionedEvent is published after a staff account is created.  It
// carries no password material; consumers that need more than this look
// the account up by username.
type StaffProvisionedEvent struct {
	StaffID       uint64 `json:"staff_id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	CreatedBy     uint64 `json:"created_by,omitempty"`
	CreatedAt     string `json:"created_at"`
}
