package incident

import "strings"

// All is the filter value that disables a filter dimension.
const All = "all"

// Filter narrows a corpus by exact severity, threat type and department.
// Empty or "all" disables a dimension.
type Filter struct {
	Severity   string
	ThreatType string
	Department string
}

// IsEmpty reports whether no dimension is active.
func (f Filter) IsEmpty() bool {
	return !active(f.Severity) && !active(f.ThreatType) && !active(f.Department)
}

func active(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != All
}

// matches applies the filter to a record. Dimensions whose column is absent are ignored.
func (f Filter) matches(r *Record, s Schema) bool {
	if active(f.Severity) && s.Has(ColSeverity) && r.Severity() != f.Severity {
		return false
	}
	if active(f.ThreatType) && s.Has(ColThreatType) && r.ThreatType() != f.ThreatType {
		return false
	}
	if active(f.Department) && s.Has(ColDepartment) && r.Department() != f.Department {
		return false
	}
	return true
}
