package incident

// Column names a corpus column.
type Column string

// Known corpus columns.
const (
	ColIncidentID    Column = "incident_id"
	ColDescription   Column = "description"
	ColThreatType    Column = "threat_type"
	ColSeverity      Column = "severity"
	ColStatus        Column = "status"
	ColAssetType     Column = "asset_type"
	ColDepartment    Column = "asset_owner_department"
	ColDayOfWeek     Column = "day_of_week"
	ColHour          Column = "hour"
	ColMonth         Column = "month"
	ColTimestamp     Column = "timestamp"
	ColAssetID       Column = "asset_id"
	ColAssetName     Column = "asset_name"
	ColEmployeeName  Column = "emp_name"
	ColTimeToResolve Column = "time_to_resolve_hours"
)

// GuaranteedColumns are the columns the corpus collaborator promises to supply.
// Their absence is a schema mismatch: defaults are substituted and a warning is surfaced.
var GuaranteedColumns = []Column{
	ColDescription, ColThreatType, ColStatus, ColAssetType, ColDepartment, ColHour, ColMonth,
}

// OptionalColumns may be absent without any warning.
var OptionalColumns = []Column{
	ColIncidentID, ColSeverity, ColDayOfWeek, ColTimestamp,
	ColAssetID, ColAssetName, ColEmployeeName, ColTimeToResolve,
}

// Schema records which columns a corpus actually carries.
// It is resolved once at corpus-load time.
type Schema struct {
	present map[Column]bool
	extra   []string
}

// NewSchema creates a Schema from the column headers found in the source.
// Unknown headers are kept as extra numeric candidates (e.g. reserved scaler slots).
func NewSchema(headers []string) Schema {
	known := make(map[Column]bool, len(GuaranteedColumns)+len(OptionalColumns))
	for _, c := range GuaranteedColumns {
		known[c] = true
	}
	for _, c := range OptionalColumns {
		known[c] = true
	}

	s := Schema{present: make(map[Column]bool, len(headers))}
	for _, h := range headers {
		c := Column(h)
		if known[c] {
			s.present[c] = true
			continue
		}
		s.extra = append(s.extra, h)
	}
	return s
}

// Has reports whether the column is present.
func (s Schema) Has(c Column) bool { return s.present[c] }

// Extra returns the headers that are not known incident columns.
func (s Schema) Extra() []string { return append([]string(nil), s.extra...) }

// MissingGuaranteed lists guaranteed columns that the source did not supply.
func (s Schema) MissingGuaranteed() []Column {
	var out []Column
	for _, c := range GuaranteedColumns {
		if !s.present[c] {
			out = append(out, c)
		}
	}
	return out
}
