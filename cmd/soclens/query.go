package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kailas-cloud/soclens/internal/domain"
	chiTransport "github.com/kailas-cloud/soclens/internal/transport/chi"
	"github.com/kailas-cloud/soclens/internal/usecase/predict"
)

func predictCmd() *cobra.Command {
	var req predict.Request

	cmd := &cobra.Command{
		Use:   "predict [description]",
		Short: "Predict severity for a hypothetical incident",
		Example: `  soclens predict "user clicked a link in a spoofed invoice email" \
    --threat-type Phishing --department Finance --hour 9 --month 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Description = args[0]
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				p, err := a.session.Predict(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), chiTransport.NewPredictResponse(p))
			})
		},
	}

	addPredictFlags(cmd.Flags(), &req)
	return cmd
}

// addPredictFlags binds the predictor form fields.
func addPredictFlags(fs *pflag.FlagSet, req *predict.Request) {
	fs.StringVar(&req.ThreatType, "threat-type", "", "threat type (unknown when empty)")
	fs.StringVar(&req.Status, "status", "", "incident status")
	fs.StringVar(&req.AssetType, "asset-type", "", "affected asset type")
	fs.StringVar(&req.Department, "department", "", "asset owner department")
	fs.StringVar(&req.DayOfWeek, "day-of-week", "Monday",
		"day of week ("+strings.Join(predict.DaysOfWeek, ", ")+")")
	fs.IntVar(&req.Hour, "hour", 12, "hour of day, 0..23")
	fs.IntVar(&req.Month, "month", 1, "month, 1..12")
}

func retrieveCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "retrieve <query>",
		Short: "Find similar past incidents and recommend playbook actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				res, err := a.session.Retrieve(ctx, args[0], topK)
				var capErr *domain.CapabilityError
				switch {
				case errors.As(err, &capErr):
					return printJSON(cmd.OutOrStdout(), chiTransport.NewRetrieveUnavailable(capErr.Missing))
				case err != nil:
					return err
				}
				return printJSON(cmd.OutOrStdout(), chiTransport.NewRetrieveResponse(res))
			})
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of incidents to return (0 uses the configured default)")
	return cmd
}

func capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Report which pre-trained capabilities are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				def, maxK := a.session.TopKBounds()
				return printJSON(cmd.OutOrStdout(),
					chiTransport.NewCapabilitiesResponse(a.session.Capabilities(ctx), def, maxK))
			})
		},
	}
}

// withApp builds the app, warms the session and runs fn.
func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.session.Warm(ctx); err != nil {
		return fmt.Errorf("failed to warm session: %w", err)
	}
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
