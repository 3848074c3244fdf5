package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// InstructionCreateRequest defines the payload for creating an instruction.
type InstructionCreateRequest struct {
	Title            string     `json:"title" binding:"required"`
	Description      *string    `json:"description"`
	OrderingUserID   string     `json:"ordering_user_id" binding:"required"`
	BearerUserIDs    []string   `json:"bearer_user_ids"`
	PlannedStartDate *time.Time `json:"planned_start_date"`
	PlannedEndDate   *time.Time `json:"planned_end_date"`
}

// InstructionUpdateRequest defines the payload for updating an instruction.
// Absent fields keep their current value.
type InstructionUpdateRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	PlannedStartDate *time.Time `json:"planned_start_date"`
	PlannedEndDate   *time.Time `json:"planned_end_date"`
	ActualStartDate  *time.Time `json:"actual_start_date"`
	ActualEndDate    *time.Time `json:"actual_end_date"`
}

// InstructionPayload describes an instruction returned by the API.
type InstructionPayload struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	Status           string     `json:"status"`
	ExecutionLevel   int        `json:"execution_level"`
	OrderingUserID   string     `json:"ordering_user_id"`
	PlannedStartDate *time.Time `json:"planned_start_date,omitempty"`
	PlannedEndDate   *time.Time `json:"planned_end_date,omitempty"`
	ActualStartDate  *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate    *time.Time `json:"actual_end_date,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewInstructionPayload maps a domain instruction onto its API shape.
func NewInstructionPayload(in domain.Instruction) InstructionPayload {
	return InstructionPayload{
		ID:               in.ID,
		Title:            in.Title,
		Description:      in.Description,
		Status:           string(in.Status),
		ExecutionLevel:   in.ExecutionLevel,
		OrderingUserID:   in.OrderingUserID,
		PlannedStartDate: in.PlannedStartDate,
		PlannedEndDate:   in.PlannedEndDate,
		ActualStartDate:  in.ActualStartDate,
		ActualEndDate:    in.ActualEndDate,
		CreatedBy:        in.CreatedBy,
		CreatedAt:        in.CreatedAt,
		UpdatedAt:        in.UpdatedAt,
	}
}

// InstructionListResponse wraps a page of instructions.
type InstructionListResponse struct {
	Instructions []InstructionPayload `json:"instructions"`
	Total        int                  `json:"total"`
	Limit        int                  `json:"limit"`
	Offset       int                  `json:"offset"`
}

// TaskCreateRequest defines the payload for creating a task.
type TaskCreateRequest struct {
	Title              string   `json:"title" binding:"required"`
	Description        *string  `json:"description"`
	ResponsibleUserIDs []string `json:"responsible_user_ids"`
}

// TaskUpdateRequest defines the payload for updating a task.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// TaskPayload describes a task returned by the API.
type TaskPayload struct {
	ID             string    `json:"id"`
	InstructionID  string    `json:"instruction_id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description,omitempty"`
	Status         string    `json:"status"`
	ExecutionLevel int       `json:"execution_level"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTaskPayload maps a domain task onto its API shape.
func NewTaskPayload(t domain.Task) TaskPayload {
	return TaskPayload{
		ID:             t.ID,
		InstructionID:  t.InstructionID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		ExecutionLevel: t.ExecutionLevel,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// StatusChangeRequest defines the payload for a lifecycle transition.
type StatusChangeRequest struct {
	NewStatus string  `json:"new_status" binding:"required"`
	Comment   *string `json:"comment"`
}

// ExecutionLevelRequest defines the payload for a progress update.
type ExecutionLevelRequest struct {
	NewLevel int     `json:"new_level"`
	Comment  *string `json:"comment"`
}

// StatusHistoryPayload describes one lifecycle transition record.
type StatusHistoryPayload struct {
	ID             string    `json:"id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Comment        *string   `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExecutionLevelHistoryPayload describes one progress change record.
type ExecutionLevelHistoryPayload struct {
	ID            string    `json:"id"`
	ActorID       string    `json:"actor_id"`
	PreviousLevel int       `json:"previous_level"`
	NewLevel      int       `json:"new_level"`
	Comment       *string   `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AssignRequest defines the payload for binding a user to a subject.
type AssignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AssignResponse returns the id of the created assignment.
type AssignResponse struct {
	AssignmentID string `json:"assignment_id"`
}

// AssignmentPayload describes a temporal assignment record.
type AssignmentPayload struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Role       string     `json:"role"`
	AssignedBy string     `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Active     bool       `json:"active"`
}

// NewAssignmentPayload maps a domain assignment onto its API shape.
func NewAssignmentPayload(a domain.Assignment) AssignmentPayload {
	return AssignmentPayload{
		ID:         a.ID,
		UserID:     a.UserID,
		Role:       string(a.Role),
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
		EndedAt:    a.EndedAt,
		Active:     a.Active,
	}
}

// DiscussionCreateRequest defines the payload for posting a message.
type DiscussionCreateRequest struct {
	ParentID *string `json:"parent_id"`
	Body     string  `json:"body" binding:"required"`
}

// DiscussionPayload describes a discussion message.
type DiscussionPayload struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// EntityCreateRequest defines the payload for creating an organizational unit.
type EntityCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ParentID    *string `json:"parent_id"`
}

// EntityPayload describes an organizational unit.
type EntityPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEntityPayload maps a domain entity onto its API shape.
func NewEntityPayload(e domain.Entity) EntityPayload {
	return EntityPayload{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		ParentID:    e.ParentID,
		CreatedAt:   e.CreatedAt,
	}
}

// ChiefAssignRequest defines the payload for appointing an entity chief.
type ChiefAssignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// LeadershipPayload describes a dated chief appointment.
type LeadershipPayload struct {
	ID        string     `json:"id"`
	EntityID  string     `json:"entity_id"`
	UserID    string     `json:"user_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// UserCreateRequest defines the payload for provisioning an account.
type UserCreateRequest struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"required"`
	FullName *string  `json:"full_name"`
	EntityID *string  `json:"entity_id"`
	RoleIDs  []string `json:"role_ids"`
}

// UserPayload describes an account returned by the API.
type UserPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	EntityID  *string   `json:"entity_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserPayload maps a domain user onto its API shape.
func NewUserPayload(u domain.User) UserPayload {
	return UserPayload{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		EntityID:  u.EntityID,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

// RoleIDsRequest defines a payload carrying a set of role ids.
type RoleIDsRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

// AuditEntryPayload describes one audit trail record.
type AuditEntryPayload struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ActionName   string         `json:"action_name"`
	TableName    string         `json:"table_name"`
	RecordID     string         `json:"record_id"`
	RecordType   string         `json:"record_type"`
	ActorID      string         `json:"actor_id"`
	HumanSummary string         `json:"human_summary"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-check results.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
