package enums

import "fmt"

// ActivityAction names the mutation recorded in an activity log entry.
type ActivityAction string

const (
	ActivityActionCreate   ActivityAction = "create"
	ActivityActionUpdate   ActivityAction = "update"
	ActivityActionDelete   ActivityAction = "delete"
	ActivityActionComplete ActivityAction = "complete"
	ActivityActionCancel   ActivityAction = "cancel"
	ActivityActionReturn   ActivityAction = "return"
	ActivityActionApprove  ActivityAction = "approve"
	ActivityActionImport   ActivityAction = "import"
	ActivityActionExport   ActivityAction = "export"
)

var validActivityActions = []ActivityAction{
	ActivityActionCreate,
	ActivityActionUpdate,
	ActivityActionDelete,
	ActivityActionComplete,
	ActivityActionCancel,
	ActivityActionReturn,
	ActivityActionApprove,
	ActivityActionImport,
	ActivityActionExport,
}

// String implements fmt.Stringer.
func (a ActivityAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActivityAction.
func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivityAction converts raw input into an ActivityAction.
func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}
