package predict

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	"github.com/kailas-cloud/soclens/internal/usecase/fusion"
)

// DaysOfWeek are the accepted day-of-week labels.
var DaysOfWeek = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Request is a predictor form submission.
type Request struct {
	Description string
	ThreatType  string
	Status      string
	AssetType   string
	Department  string
	DayOfWeek   string
	Hour        int
	Month       int
}

// Validate checks the bounded fields.
func (r Request) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return fmt.Errorf("%w: hour must be between 0 and 23, got %d", domain.ErrInvalidRequest, r.Hour)
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", domain.ErrInvalidRequest, r.Month)
	}
	if r.DayOfWeek != "" && !slices.Contains(DaysOfWeek, r.DayOfWeek) {
		return fmt.Errorf("%w: unknown day of week %q", domain.ErrInvalidRequest, r.DayOfWeek)
	}
	return nil
}

// Input converts the request to fusion input. Reserved numeric slots stay zero.
func (r Request) Input() fusion.Input {
	return fusion.Input{
		Description: r.Description,
		Categorical: map[string]string{
			string(incident.ColThreatType): r.ThreatType,
			string(incident.ColStatus):     r.Status,
			string(incident.ColAssetType):  r.AssetType,
			string(incident.ColDepartment): r.Department,
			string(incident.ColDayOfWeek):  r.DayOfWeek,
		},
		Numeric: map[string]float64{
			string(incident.ColHour):  float64(r.Hour),
			string(incident.ColMonth): float64(r.Month),
		},
	}
}
