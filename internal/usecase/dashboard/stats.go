package dashboard

import "time"

// KPIs are the headline counters of a corpus view.
type KPIs struct {
	Incidents         int
	UniqueAssets      int
	HighCritical      int
	OpenInvestigating int
}

// Count is one bar of a distribution.
type Count struct {
	Label string
	Count int
}

// DailyCount is one day of incident volume. Day is midnight UTC.
type DailyCount struct {
	Day   time.Time
	Count int
}

// Stats summarises a corpus view.
type Stats struct {
	KPIs KPIs
	// Distributions are keyed by column name; absent columns have no entry.
	Distributions map[string][]Count
	// Daily is nil when the view carries no timestamp column.
	Daily []DailyCount
}

// FilterOptions lists the values offered by the incident filters, each led by "all".
type FilterOptions struct {
	Severity   []string
	ThreatType []string
	Department []string
}

// PredictorOptions lists the values offered by the predictor form.
type PredictorOptions struct {
	ThreatType []string
	Status     []string
	AssetType  []string
	Department []string
	DayOfWeek  []string
	HourMin    int
	HourMax    int
	MonthMin   int
	MonthMax   int
}
