package enums

import "fmt"

// ActivitySubject tags which aggregate an activity log entry refers to.
// The subject is stored as {subject_type, subject_id} rather than a
// polymorphic relation; lookups resolve the table from this tag.
type ActivitySubject string

const (
	ActivitySubjectProduct  ActivitySubject = "product"
	ActivitySubjectCategory ActivitySubject = "category"
	ActivitySubjectUnit     ActivitySubject = "unit"
	ActivitySubjectCustomer ActivitySubject = "customer"
	ActivitySubjectSupplier ActivitySubject = "supplier"
	ActivitySubjectOrder    ActivitySubject = "order"
	ActivitySubjectPurchase ActivitySubject = "purchase"
	ActivitySubjectUser     ActivitySubject = "user"
)

var validActivitySubjects = []ActivitySubject{
	ActivitySubjectProduct,
	ActivitySubjectCategory,
	ActivitySubjectUnit,
	ActivitySubjectCustomer,
	ActivitySubjectSupplier,
	ActivitySubjectOrder,
	ActivitySubjectPurchase,
	ActivitySubjectUser,
}

// String implements fmt.Stringer.
func (s ActivitySubject) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ActivitySubject.
func (s ActivitySubject) IsValid() bool {
	for _, candidate := range validActivitySubjects {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseActivitySubject converts raw input into an ActivitySubject.
func ParseActivitySubject(value string) (ActivitySubject, error) {
	for _, candidate := range validActivitySubjects {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity subject %q", value)
}
