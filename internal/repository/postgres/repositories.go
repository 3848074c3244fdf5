package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users        *UserRepository
	Roles        *RoleRepository
	Permissions  *PermissionRepository
	Entities     *EntityRepository
	Assignments  *AssignmentRepository
	Instructions *InstructionRepository
	Tasks        *TaskRepository
	Lifecycle    *LifecycleStore
	Discussions  *DiscussionRepository
	AuditLogs    *AuditLogRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(pool),
		Roles:        NewRoleRepository(pool),
		Permissions:  NewPermissionRepository(pool),
		Entities:     NewEntityRepository(pool),
		Assignments:  NewAssignmentRepository(pool),
		Instructions: NewInstructionRepository(pool),
		Tasks:        NewTaskRepository(pool),
		Lifecycle:    NewLifecycleStore(pool),
		Discussions:  NewDiscussionRepository(pool),
		AuditLogs:    NewAuditLogRepository(pool),
	}
}
