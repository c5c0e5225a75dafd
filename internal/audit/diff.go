package audit

import "fmt"

// FieldChange captures one field's before/after values.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff compares two field maps and keeps only the fields whose values differ.
// Values are compared by their string form so enums, numbers and their string
// representations compare equal.
func Diff(oldValues, newValues map[string]any) map[string]FieldChange {
	changes := map[string]FieldChange{}
	for field, newValue := range newValues {
		oldValue, existed := oldValues[field]
		if existed && normalize(oldValue) == normalize(newValue) {
			continue
		}
		changes[field] = FieldChange{Old: oldValue, New: newValue}
	}
	for field, oldValue := range oldValues {
		if _, present := newValues[field]; !present {
			changes[field] = FieldChange{Old: oldValue, New: nil}
		}
	}
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func normalize(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
