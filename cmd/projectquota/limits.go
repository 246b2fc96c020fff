package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/projectquota/pkg/period"
)

func newLimitsCommand() *cobra.Command {
	var (
		user      string
		periodKey string
	)

	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Print a user's limits snapshot as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			if periodKey != "" {
				if err := period.Validate(periodKey); err != nil {
					return fmt.Errorf("invalid --period: %w", err)
				}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			if periodKey == "" {
				periodKey = a.limits.CurrentPeriodKey()
			}
			limits, err := a.limits.LimitsAt(ctx, a.store, userID, periodKey)
			if err != nil {
				return err
			}

			if start, end, err := a.limits.Periods().Bounds(periodKey); err == nil {
				a.log.DebugContext(ctx, "period bounds",
					slog.Time("start", start),
					slog.Time("end", end),
				)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(limits)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID (UUID)")
	cmd.Flags().StringVar(&periodKey, "period", "", "Period key YYYY-MM (default: current period)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
