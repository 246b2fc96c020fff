package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/entitlement/sqlitestore"
)

var errSQLiteOnly = errors.New("user accounts and referrals are owned by other services; this command only works with STORE_DRIVER=sqlite")

// newUserCommand seeds collaborator-owned rows in a local SQLite store.
func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Seed development data (SQLite only)",
	}

	var plan string
	setPlan := &cobra.Command{
		Use:   "set-plan <user-id>",
		Short: "Create or update a user account with a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			code := entitlement.PlanCode(strings.ToUpper(plan))
			if !code.Valid() {
				return fmt.Errorf("%w: %q", entitlement.ErrPlanNotFound, plan)
			}

			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()
			if a.sqlite == nil {
				return errSQLiteOnly
			}
			return a.sqlite.UpsertUserAccount(cmd.Context(), userID, code)
		},
	}
	setPlan.Flags().StringVar(&plan, "plan", string(entitlement.PlanBasic), "Plan code: BASIC, PRO or ENTERPRISE")

	var periodKey string
	approveReferral := &cobra.Command{
		Use:   "approve-referral <referrer-user-id>",
		Short: "Record an approved referral for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			a, err := newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()
			if a.sqlite == nil {
				return errSQLiteOnly
			}
			if periodKey == "" {
				periodKey = a.limits.CurrentPeriodKey()
			}
			return a.sqlite.InsertReferral(cmd.Context(), sqlitestore.Referral{
				ReferrerUserID: userID,
				Status:         entitlement.ReferralApproved,
				PeriodKey:      periodKey,
			})
		},
	}
	approveReferral.Flags().StringVar(&periodKey, "period", "", "Period key YYYY-MM (default: current period)")

	cmd.AddCommand(setPlan, approveReferral)
	return cmd
}
