package incident

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// recordNamespace seeds deterministic record identifiers for rows without an id column.
var recordNamespace = uuid.MustParse("6f1c4c52-2b7e-4d1e-9a43-0b7c1f1d9e21")

// Attrs carries raw incident attributes from a corpus loader.
// Empty strings and nil pointers mean "not present".
type Attrs struct {
	ID                 string
	Description        string
	ThreatType         string
	Severity           string
	Status             string
	AssetType          string
	Department         string
	DayOfWeek          string
	Numerics           map[string]float64
	Timestamp          *time.Time
	AssetID            string
	AssetName          string
	EmployeeName       string
	TimeToResolveHours *float64
}

// Record is one historical incident (immutable value object).
type Record struct {
	id            string
	position      int
	description   string
	threatType    string
	severity      string
	status        string
	assetType     string
	department    string
	dayOfWeek     string
	numerics      map[string]float64
	timestamp     *time.Time
	assetID       string
	assetName     string
	employeeName  string
	timeToResolve *float64
}

// New creates a Record at the given corpus position.
// A missing ID is derived deterministically from the position and description.
func New(position int, a Attrs) Record {
	id := strings.TrimSpace(a.ID)
	if id == "" {
		id = uuid.NewSHA1(recordNamespace, []byte(strconv.Itoa(position)+"\x00"+a.Description)).String()
	}

	var ts *time.Time
	if a.Timestamp != nil {
		t := *a.Timestamp
		ts = &t
	}
	var ttr *float64
	if a.TimeToResolveHours != nil {
		v := *a.TimeToResolveHours
		ttr = &v
	}

	return Record{
		id:            id,
		position:      position,
		description:   a.Description,
		threatType:    strings.TrimSpace(a.ThreatType),
		severity:      strings.TrimSpace(a.Severity),
		status:        strings.TrimSpace(a.Status),
		assetType:     strings.TrimSpace(a.AssetType),
		department:    strings.TrimSpace(a.Department),
		dayOfWeek:     strings.TrimSpace(a.DayOfWeek),
		numerics:      cloneFloat64Map(a.Numerics),
		timestamp:     ts,
		assetID:       a.AssetID,
		assetName:     a.AssetName,
		employeeName:  a.EmployeeName,
		timeToResolve: ttr,
	}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Position returns the record's index in the original corpus order.
func (r *Record) Position() int { return r.position }

// Description returns the free-text description ("" when missing).
func (r *Record) Description() string { return r.description }

// ThreatType returns the threat type.
func (r *Record) ThreatType() string { return r.threatType }

// Severity returns the labelled severity.
func (r *Record) Severity() string { return r.severity }

// Status returns the incident status.
func (r *Record) Status() string { return r.status }

// AssetType returns the affected asset type.
func (r *Record) AssetType() string { return r.assetType }

// Department returns the asset owner department.
func (r *Record) Department() string { return r.department }

// DayOfWeek returns the day-of-week label.
func (r *Record) DayOfWeek() string { return r.dayOfWeek }

// Numeric returns a numeric field and whether it was populated.
func (r *Record) Numeric(name string) (float64, bool) {
	v, ok := r.numerics[name]
	return v, ok
}

// Numerics returns a copy of the numeric fields.
func (r *Record) Numerics() map[string]float64 { return cloneFloat64Map(r.numerics) }

// Timestamp returns the parsed timestamp, nil when missing or malformed.
func (r *Record) Timestamp() *time.Time {
	if r.timestamp == nil {
		return nil
	}
	t := *r.timestamp
	return &t
}

// AssetID returns the display-only asset identifier.
func (r *Record) AssetID() string { return r.assetID }

// AssetName returns the display-only asset name.
func (r *Record) AssetName() string { return r.assetName }

// EmployeeName returns the display-only employee name.
func (r *Record) EmployeeName() string { return r.employeeName }

// TimeToResolveHours returns the resolution time, nil when missing.
func (r *Record) TimeToResolveHours() *float64 {
	if r.timeToResolve == nil {
		return nil
	}
	v := *r.timeToResolve
	return &v
}

func cloneFloat64Map(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
