package models

import "time"

// Priority of an assignment.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// JobStatus is the lifecycle state of a job card.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ValidJobStatus reports whether s is a known job status.
func ValidJobStatus(s JobStatus) bool {
	switch s {
	case JobStatusPending, JobStatusAssigned, JobStatusInProgress, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// JobCard is a unit of field work.
type JobCard struct {
	ID          int        `db:"id" json:"id"`
	Type        string     `db:"type" json:"type"`
	Description string     `db:"description" json:"description"`
	Customer    string     `db:"customer" json:"customer"`
	Status      JobStatus  `db:"status" json:"status"`
	Priority    Priority   `db:"priority" json:"priority"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	Notes       string     `db:"notes" json:"notes"`
	AssignedTo  *int       `db:"assigned_to" json:"assigned_to,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// EmployeeDetails is the workload/availability view of an employee.
type EmployeeDetails struct {
	ID         int    `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department"`
	ActiveJobs int    `db:"active_jobs" json:"active_jobs"`
	Available  bool   `db:"available" json:"available"`
}

// AssignmentRequest binds a job card to an employee. It is transient.
type AssignmentRequest struct {
	JobCardID      int        `json:"job_card_id" binding:"required" validate:"required,gt=0"`
	EmployeeID     int        `json:"employee_id" binding:"required" validate:"required,gt=0"`
	Priority       Priority   `json:"priority" binding:"required,oneof=low medium high urgent" validate:"required,oneof=low medium high urgent"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Notes          string     `json:"notes"`
	NotifyEmployee bool       `json:"notify_employee"`
}

// AssignResponse is returned by POST /jobcard/assign.
type AssignResponse struct {
	Success        bool     `json:"success"`
	JobCard        *JobCard `json:"job_card,omitempty"`
	AssignedToName string   `json:"assigned_to_name,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// StatusUpdateRequest is the body of PATCH /jobcard/:id/status.
type StatusUpdateRequest struct {
	Status JobStatus `json:"status" binding:"required"`
}
