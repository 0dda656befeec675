package corpus

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/soclens/internal/domain/incident"
)

// timestampLayouts are tried in order; unparseable timestamps become null.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// numericColumns always feed the numeric block when present.
var numericColumns = []incident.Column{incident.ColHour, incident.ColMonth}

// row is one source row keyed by column header. Values are strings for CSV
// and driver-native types for database sources.
type row map[string]any

// attrs converts a row into record attributes. Malformed values are nulled
// out rather than failing the load.
func (r row) attrs(extra []string) incident.Attrs {
	a := incident.Attrs{
		ID:           r.text(incident.ColIncidentID),
		Description:  r.text(incident.ColDescription),
		ThreatType:   r.text(incident.ColThreatType),
		Severity:     r.text(incident.ColSeverity),
		Status:       r.text(incident.ColStatus),
		AssetType:    r.text(incident.ColAssetType),
		Department:   r.text(incident.ColDepartment),
		DayOfWeek:    r.text(incident.ColDayOfWeek),
		AssetID:      r.text(incident.ColAssetID),
		AssetName:    r.text(incident.ColAssetName),
		EmployeeName: r.text(incident.ColEmployeeName),
		Timestamp:    toTime(r[string(incident.ColTimestamp)]),
	}
	if v, ok := toFloat(r[string(incident.ColTimeToResolve)]); ok {
		a.TimeToResolveHours = &v
	}

	nums := make(map[string]float64)
	for _, c := range numericColumns {
		if v, ok := toFloat(r[string(c)]); ok {
			nums[string(c)] = v
		}
	}
	for _, name := range extra {
		if v, ok := toFloat(r[name]); ok {
			nums[name] = v
		}
	}
	if len(nums) > 0 {
		a.Numerics = nums
	}
	return a
}

func (r row) text(c incident.Column) string {
	return toText(r[string(c)])
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return &ts
			}
		}
	}
	return nil
}
