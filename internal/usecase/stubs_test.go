package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// Shared in-memory stubs for usecase tests.

type permRepoStub struct {
	byUser  map[string][]domain.Permission
	listErr error
}

func (m *permRepoStub) Create(_ context.Context, _ domain.Permission) error {
	return errors.New("unexpected call: Create")
}

func (m *permRepoStub) GetByID(_ context.Context, _ string) (*domain.Permission, error) {
	return nil, errors.New("unexpected call: GetByID")
}

func (m *permRepoStub) GetByName(_ context.Context, _ string) (*domain.Permission, error) {
	return nil, errors.New("unexpected call: GetByName")
}

func (m *permRepoStub) List(_ context.Context) ([]domain.Permission, error) {
	return nil, errors.New("unexpected call: List")
}

func (m *permRepoStub) Delete(_ context.Context, _ string) error {
	return errors.New("unexpected call: Delete")
}

func (m *permRepoStub) ListByRole(_ context.Context, _ string) ([]domain.Permission, error) {
	return nil, errors.New("unexpected call: ListByRole")
}

func (m *permRepoStub) ListByUser(_ context.Context, userID string) ([]domain.Permission, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.byUser[userID], nil
}

func (m *permRepoStub) Grant(_ context.Context, _, _ string) error {
	return errors.New("unexpected call: Grant")
}

func (m *permRepoStub) RevokeGrant(_ context.Context, _, _ string) error {
	return errors.New("unexpected call: RevokeGrant")
}

var _ port.PermissionRepository = (*permRepoStub)(nil)

type entityRepoStub struct {
	entities []domain.Entity
	chiefed  map[string][]string
}

func (m *entityRepoStub) Create(_ context.Context, _ domain.Entity) error {
	return errors.New("unexpected call: Create")
}

func (m *entityRepoStub) GetByID(_ context.Context, id string) (*domain.Entity, error) {
	for _, e := range m.entities {
		if e.ID == id {
			entity := e
			return &entity, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *entityRepoStub) ListAll(_ context.Context) ([]domain.Entity, error) {
	return m.entities, nil
}

func (m *entityRepoStub) ListChildren(_ context.Context, parentID string) ([]domain.Entity, error) {
	var children []domain.Entity
	for _, e := range m.entities {
		if e.ParentID != nil && *e.ParentID == parentID {
			children = append(children, e)
		}
	}
	return children, nil
}

func (m *entityRepoStub) CurrentChief(_ context.Context, _ string, _ time.Time) (*domain.EntityLeadership, error) {
	return nil, repository.ErrNotFound
}

func (m *entityRepoStub) ChiefedEntityIDs(_ context.Context, userID string, _ time.Time) ([]string, error) {
	return m.chiefed[userID], nil
}

func (m *entityRepoStub) AssignChief(_ context.Context, _ domain.EntityLeadership) error {
	return errors.New("unexpected call: AssignChief")
}

func (m *entityRepoStub) EndLeadership(_ context.Context, _ string, _ time.Time) error {
	return errors.New("unexpected call: EndLeadership")
}

var _ port.EntityRepository = (*entityRepoStub)(nil)

type assignmentRepoStub struct {
	rows      map[string]domain.Assignment
	createErr error
}

func newAssignmentRepoStub() *assignmentRepoStub {
	return &assignmentRepoStub{rows: make(map[string]domain.Assignment)}
}

func (m *assignmentRepoStub) Create(_ context.Context, a domain.Assignment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rows[a.ID] = a
	return nil
}

func (m *assignmentRepoStub) GetByID(_ context.Context, id string) (*domain.Assignment, error) {
	if a, ok := m.rows[id]; ok {
		return &a, nil
	}
	return nil, repository.ErrNotFound
}

func (m *assignmentRepoStub) FindCurrent(_ context.Context, subjectType domain.SubjectType, subjectID string, role domain.AssignmentRole, now time.Time) ([]domain.Assignment, error) {
	var current []domain.Assignment
	for _, a := range m.rows {
		if a.SubjectType == subjectType && a.SubjectID == subjectID && a.Role == role && a.Current(now) {
			current = append(current, a)
		}
	}
	return current, nil
}

func (m *assignmentRepoStub) FindCurrentForUser(_ context.Context, userID string, role domain.AssignmentRole, now time.Time) ([]domain.Assignment, error) {
	var current []domain.Assignment
	for _, a := range m.rows {
		if a.UserID == userID && a.Role == role && a.Current(now) {
			current = append(current, a)
		}
	}
	return current, nil
}

func (m *assignmentRepoStub) End(_ context.Context, id string, at time.Time) error {
	a, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	ended := at
	a.EndedAt = &ended
	a.Active = false
	m.rows[id] = a
	return nil
}

func (m *assignmentRepoStub) History(_ context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Assignment, error) {
	var rows []domain.Assignment
	for _, a := range m.rows {
		if a.SubjectType == subjectType && a.SubjectID == subjectID {
			rows = append(rows, a)
		}
	}
	return rows, nil
}

var _ port.AssignmentRepository = (*assignmentRepoStub)(nil)

type userRepoStub struct {
	users map[string]domain.User
}

func (m *userRepoStub) Create(_ context.Context, user domain.User) error {
	if m.users == nil {
		m.users = make(map[string]domain.User)
	}
	m.users[user.ID] = user
	return nil
}

func (m *userRepoStub) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoStub) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoStub) Update(_ context.Context, _ domain.User) error {
	return errors.New("unexpected call: Update")
}

func (m *userRepoStub) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Status = status
	m.users[id] = u
	return nil
}

func (m *userRepoStub) List(_ context.Context, _ port.UserFilter) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *userRepoStub) Count(_ context.Context, _ port.UserFilter) (int, error) {
	return len(m.users), nil
}

var _ port.UserRepository = (*userRepoStub)(nil)

type instructionRepoStub struct {
	instructions map[string]domain.Instruction
	lastFilter   port.InstructionFilter
	visible      map[string]bool
}

func newInstructionRepoStub() *instructionRepoStub {
	return &instructionRepoStub{instructions: make(map[string]domain.Instruction)}
}

func (m *instructionRepoStub) Create(_ context.Context, instruction domain.Instruction) error {
	m.instructions[instruction.ID] = instruction
	return nil
}

func (m *instructionRepoStub) GetByID(_ context.Context, id string) (*domain.Instruction, error) {
	if i, ok := m.instructions[id]; ok {
		return &i, nil
	}
	return nil, repository.ErrNotFound
}

func (m *instructionRepoStub) List(_ context.Context, filter port.InstructionFilter) ([]domain.Instruction, error) {
	m.lastFilter = filter
	var result []domain.Instruction
	for _, i := range m.instructions {
		result = append(result, i)
	}
	return result, nil
}

func (m *instructionRepoStub) Count(_ context.Context, _ port.InstructionFilter) (int, error) {
	return len(m.instructions), nil
}

func (m *instructionRepoStub) Update(_ context.Context, instruction domain.Instruction) error {
	if _, ok := m.instructions[instruction.ID]; !ok {
		return repository.ErrNotFound
	}
	m.instructions[instruction.ID] = instruction
	return nil
}

func (m *instructionRepoStub) SoftDelete(_ context.Context, id string) error {
	if _, ok := m.instructions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.instructions, id)
	return nil
}

func (m *instructionRepoStub) Restore(_ context.Context, _ string) error {
	return nil
}

func (m *instructionRepoStub) VisibleTo(_ context.Context, id string, _ domain.Scope) (bool, error) {
	return m.visible[id], nil
}

var _ port.InstructionRepository = (*instructionRepoStub)(nil)

type taskRepoStub struct {
	tasks   map[string]domain.Task
	visible map[string]bool
}

func newTaskRepoStub() *taskRepoStub {
	return &taskRepoStub{tasks: make(map[string]domain.Task)}
}

func (m *taskRepoStub) Create(_ context.Context, task domain.Task) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *taskRepoStub) GetByID(_ context.Context, id string) (*domain.Task, error) {
	if t, ok := m.tasks[id]; ok {
		return &t, nil
	}
	return nil, repository.ErrNotFound
}

func (m *taskRepoStub) List(_ context.Context, _ port.TaskFilter) ([]domain.Task, error) {
	var result []domain.Task
	for _, t := range m.tasks {
		result = append(result, t)
	}
	return result, nil
}

func (m *taskRepoStub) Count(_ context.Context, _ port.TaskFilter) (int, error) {
	return len(m.tasks), nil
}

func (m *taskRepoStub) Update(_ context.Context, task domain.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *taskRepoStub) SoftDelete(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *taskRepoStub) VisibleTo(_ context.Context, id string, _ domain.Scope) (bool, error) {
	return m.visible[id], nil
}

var _ port.TaskRepository = (*taskRepoStub)(nil)

type discussionRepoStub struct {
	rows map[string]domain.Discussion
}

func newDiscussionRepoStub() *discussionRepoStub {
	return &discussionRepoStub{rows: make(map[string]domain.Discussion)}
}

func (m *discussionRepoStub) Create(_ context.Context, d domain.Discussion) error {
	m.rows[d.ID] = d
	return nil
}

func (m *discussionRepoStub) GetByID(_ context.Context, id string) (*domain.Discussion, error) {
	if d, ok := m.rows[id]; ok {
		return &d, nil
	}
	return nil, repository.ErrNotFound
}

func (m *discussionRepoStub) ListBySubject(_ context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Discussion, error) {
	var rows []domain.Discussion
	for _, d := range m.rows {
		if d.SubjectType == subjectType && d.SubjectID == subjectID {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

var _ port.DiscussionRepository = (*discussionRepoStub)(nil)

type auditRepoStub struct {
	entries   []domain.AuditLogEntry
	insertErr error
}

func (m *auditRepoStub) Insert(_ context.Context, entry domain.AuditLogEntry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *auditRepoStub) List(_ context.Context, _ port.AuditFilter) ([]domain.AuditLogEntry, error) {
	return m.entries, nil
}

var _ port.AuditLogRepository = (*auditRepoStub)(nil)

type notificationPublisherStub struct {
	published  []domain.NotificationEvent
	publishErr error
}

func (m *notificationPublisherStub) PublishNotification(_ context.Context, intent domain.NotificationEvent) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, intent)
	return nil
}

var _ port.NotificationPublisher = (*notificationPublisherStub)(nil)

// lifecycleStoreStub applies changes against an in-memory status map with the
// same compare-and-set semantics as the postgres store.
type lifecycleStoreStub struct {
	statuses     map[string]domain.Status
	levels       map[string]int
	statusRows   []domain.StatusHistoryEntry
	levelRows    []domain.ExecutionLevelHistoryEntry
	statusErr    error
	levelErr     error
	statusCalls  int
	levelCalls   int
}

func newLifecycleStoreStub() *lifecycleStoreStub {
	return &lifecycleStoreStub{
		statuses: make(map[string]domain.Status),
		levels:   make(map[string]int),
	}
}

func (m *lifecycleStoreStub) key(subjectType domain.SubjectType, subjectID string) string {
	return string(subjectType) + "/" + subjectID
}

func (m *lifecycleStoreStub) ApplyStatusChange(_ context.Context, change port.StatusChange) (*domain.StatusHistoryEntry, error) {
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}

	key := m.key(change.SubjectType, change.SubjectID)
	if m.statuses[key] != change.PreviousStatus {
		return nil, repository.ErrConflict
	}
	m.statuses[key] = change.NewStatus

	entry := domain.StatusHistoryEntry{
		ID:             change.SubjectID + "-h",
		SubjectType:    change.SubjectType,
		SubjectID:      change.SubjectID,
		ActorID:        change.ActorID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		Comment:        change.Comment,
		CreatedAt:      time.Now().UTC(),
	}
	m.statusRows = append(m.statusRows, entry)
	return &entry, nil
}

func (m *lifecycleStoreStub) ApplyExecutionLevelChange(_ context.Context, change port.ExecutionLevelChange) (*domain.ExecutionLevelHistoryEntry, error) {
	m.levelCalls++
	if m.levelErr != nil {
		return nil, m.levelErr
	}

	key := m.key(change.SubjectType, change.SubjectID)
	if m.levels[key] != change.PreviousLevel {
		return nil, repository.ErrConflict
	}
	m.levels[key] = change.NewLevel

	entry := domain.ExecutionLevelHistoryEntry{
		ID:            change.SubjectID + "-lh",
		SubjectType:   change.SubjectType,
		SubjectID:     change.SubjectID,
		ActorID:       change.ActorID,
		PreviousLevel: change.PreviousLevel,
		NewLevel:      change.NewLevel,
		Comment:       change.Comment,
		CreatedAt:     time.Now().UTC(),
	}
	m.levelRows = append(m.levelRows, entry)
	return &entry, nil
}

func (m *lifecycleStoreStub) StatusHistory(_ context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.StatusHistoryEntry, error) {
	var rows []domain.StatusHistoryEntry
	for _, e := range m.statusRows {
		if e.SubjectType == subjectType && e.SubjectID == subjectID {
			rows = append(rows, e)
		}
	}
	return rows, nil
}

func (m *lifecycleStoreStub) ExecutionLevelHistory(_ context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.ExecutionLevelHistoryEntry, error) {
	var rows []domain.ExecutionLevelHistoryEntry
	for _, e := range m.levelRows {
		if e.SubjectType == subjectType && e.SubjectID == subjectID {
			rows = append(rows, e)
		}
	}
	return rows, nil
}

var _ port.LifecycleStore = (*lifecycleStoreStub)(nil)

type roleRepoStub struct {
	byID        map[string]domain.Role
	byName      map[string]domain.Role
	created     []domain.Role
	assigned    map[string][]string
	userRoles   map[string][]string
	revoked     map[string][]string
	createErr   error
	assignedErr error
}

func newRoleRepoStub() *roleRepoStub {
	return &roleRepoStub{
		byID:      map[string]domain.Role{},
		byName:    map[string]domain.Role{},
		assigned:  map[string][]string{},
		userRoles: map[string][]string{},
		revoked:   map[string][]string{},
	}
}

func (m *roleRepoStub) Create(_ context.Context, role domain.Role) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[role.ID] = role
	m.byName[role.Name] = role
	m.created = append(m.created, role)
	return nil
}

func (m *roleRepoStub) GetByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (m *roleRepoStub) GetByName(_ context.Context, name string) (*domain.Role, error) {
	role, ok := m.byName[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (m *roleRepoStub) List(_ context.Context) ([]domain.Role, error) {
	var roles []domain.Role
	for _, role := range m.byID {
		roles = append(roles, role)
	}
	return roles, nil
}

func (m *roleRepoStub) Update(_ context.Context, role domain.Role) error {
	m.byID[role.ID] = role
	return nil
}

func (m *roleRepoStub) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

func (m *roleRepoStub) AssignPermissions(_ context.Context, roleID string, permissionIDs []string) (int, error) {
	if m.assignedErr != nil {
		return 0, m.assignedErr
	}
	m.assigned[roleID] = append(m.assigned[roleID], permissionIDs...)
	return len(permissionIDs), nil
}

func (m *roleRepoStub) RevokePermissions(_ context.Context, roleID string, permissionIDs []string) (int, error) {
	m.revoked[roleID] = append(m.revoked[roleID], permissionIDs...)
	return len(permissionIDs), nil
}

func (m *roleRepoStub) AssignToUser(_ context.Context, userID, roleID string, _ time.Time) error {
	m.userRoles[userID] = append(m.userRoles[userID], roleID)
	return nil
}

func (m *roleRepoStub) RevokeFromUser(_ context.Context, userID, roleID string, _ time.Time) error {
	roles := m.userRoles[userID]
	for i, id := range roles {
		if id == roleID {
			m.userRoles[userID] = append(roles[:i], roles[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *roleRepoStub) ListByUser(_ context.Context, userID string) ([]domain.Role, error) {
	var roles []domain.Role
	for _, id := range m.userRoles[userID] {
		if role, ok := m.byID[id]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func (m *roleRepoStub) GetUserRoles(_ context.Context, userID string) ([]domain.UserRole, error) {
	var rows []domain.UserRole
	for _, id := range m.userRoles[userID] {
		rows = append(rows, domain.UserRole{UserID: userID, RoleID: id})
	}
	return rows, nil
}

var _ port.RoleRepository = (*roleRepoStub)(nil)

// timeAgo returns a UTC timestamp the given number of hours in the past.
func timeAgo(hours int) time.Time {
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
}

// perms is shorthand for building permission fixtures.
func perms(names ...string) []domain.Permission {
	out := make([]domain.Permission, 0, len(names))
	for i, name := range names {
		out = append(out, domain.Permission{ID: string(rune('a' + i)), Name: name})
	}
	return out
}
