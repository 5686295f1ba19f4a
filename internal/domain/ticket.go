package domain

import "errors"

// ErrTicketNotFound is returned when looking up a non-existent support ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// Support ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in-progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Support ticket priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// SupportTicket is a customer support request shown on the dashboard.
type SupportTicket struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"-"`
	Subject   string           `json:"subject"`
	Message   string           `json:"message"`
	Status    string           `json:"status"`
	Priority  string           `json:"priority"`
	CreatedAt int64            `json:"createdAt"` // Unix timestamp
	UpdatedAt int64            `json:"updatedAt"` // Unix timestamp
	Responses []TicketResponse `json:"responses,omitempty"`
}

// TicketResponse is a single reply on a support ticket.
type TicketResponse struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	IsStaff   bool   `json:"isStaff"`
	CreatedAt int64  `json:"createdAt"`
}
