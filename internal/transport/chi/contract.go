package chi

import (
	"context"

	"github.com/kailas-cloud/soclens/internal/artifact"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
	"github.com/kailas-cloud/soclens/internal/domain/prediction"
	"github.com/kailas-cloud/soclens/internal/session"
	"github.com/kailas-cloud/soclens/internal/usecase/dashboard"
	healthuc "github.com/kailas-cloud/soclens/internal/usecase/health"
	"github.com/kailas-cloud/soclens/internal/usecase/predict"
)

// Session is the read-only dashboard state the handlers serve.
type Session interface {
	Capabilities(ctx context.Context) []artifact.Status
	TopKBounds() (int, int)
	Incidents(ctx context.Context, f incident.Filter, limit int) ([]incident.Record, int, error)
	Stats(ctx context.Context, f incident.Filter) (dashboard.Stats, error)
	Options(ctx context.Context, f incident.Filter) (dashboard.FilterOptions, dashboard.PredictorOptions, error)
	Predict(ctx context.Context, req predict.Request) (prediction.Prediction, error)
	Retrieve(ctx context.Context, query string, k int) (session.Retrieval, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

var _ Session = (*session.Session)(nil)
