package domain

import "fmt"

// ResourceKind names a scoped resource family.
type ResourceKind string

const (
	ResourceInstructions ResourceKind = "instructions"
	ResourceTasks        ResourceKind = "tasks"
	ResourceEntities     ResourceKind = "entities"
	ResourceUsers        ResourceKind = "users"
	ResourceRoles        ResourceKind = "roles"
)

// Action permissions. Permission strings are the persisted capability names;
// renaming one is a data migration, not a refactor.
const (
	PermCreateInstruction       = "create_instruction"
	PermEditInstruction         = "edit_instruction"
	PermDeleteInstruction       = "delete_instruction"
	PermChangeInstructionStatus = "change_instruction_status"
	PermAssignBearers           = "assign_instruction_bearers"
	PermCreateTask              = "create_task"
	PermEditTask                = "edit_task"
	PermChangeTaskStatus        = "change_task_status"
	PermAssignResponsibles      = "assign_task_responsibles"
	PermCreateDiscussion        = "create_discussion"
	PermManageUsers             = "manage_users"
	PermManageRoles             = "manage_roles"
	PermManageEntities          = "manage_entities"
)

// ViewPermissions holds the permission names gating each visibility tier of a
// resource kind. An empty Entity or Own name means the tier does not exist
// for that kind.
type ViewPermissions struct {
	Global string
	Entity string
	Own    string
}

// viewCatalog is the static resource-kind → view-permission mapping. It is
// exhaustively checked at startup so an unmapped kind fails fast instead of
// silently resolving to no scope.
var viewCatalog = map[ResourceKind]ViewPermissions{
	ResourceInstructions: {Global: "view_all_projects", Entity: "view_entity_projects", Own: "view_my_projects"},
	ResourceTasks:        {Global: "view_all_tasks", Entity: "view_entity_tasks", Own: "view_my_tasks"},
	ResourceEntities:     {Global: "view_entities"},
	ResourceUsers:        {Global: "view_users"},
	ResourceRoles:        {Global: "view_roles"},
}

var allResourceKinds = []ResourceKind{
	ResourceInstructions,
	ResourceTasks,
	ResourceEntities,
	ResourceUsers,
	ResourceRoles,
}

// ViewPermissionsFor returns the view-permission names for the kind. The
// second return is false for an unknown kind.
func ViewPermissionsFor(kind ResourceKind) (ViewPermissions, bool) {
	vp, ok := viewCatalog[kind]
	return vp, ok
}

// ValidateCatalog checks the permission catalog is complete. It is called at
// startup; an incomplete mapping aborts boot.
func ValidateCatalog() error {
	for _, kind := range allResourceKinds {
		vp, ok := viewCatalog[kind]
		if !ok {
			return fmt.Errorf("resource kind %q has no view permission mapping", kind)
		}
		if vp.Global == "" {
			return fmt.Errorf("resource kind %q has no global view permission", kind)
		}
	}
	return nil
}
