package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"referral-tracker-backend/internal/features/referral/service"
)

// NewMilestonesCommand groups the milestone subcommands.
func NewMilestonesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestones",
		Short: "Manage referral milestones",
	}

	cmd.AddCommand(newMilestonesAddCommand(rootOpts))
	cmd.AddCommand(newMilestonesListCommand(rootOpts))

	return cmd
}

func newMilestonesAddCommand(rootOpts *RootOptions) *cobra.Command {
	var count, award string

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a milestone",
		Example: `  referral-admin milestones add --count 5 --award 100`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withService(cmd.Context(), func(svc service.ReferralService) error {
				m, err := svc.AddMilestone(cmd.Context(), count, award)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Milestone Added. referral_count=%d award=%d\n", m.ReferralCount, m.Award)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&count, "count", "", "referral count threshold")
	cmd.Flags().StringVar(&award, "award", "", "award granted at the threshold")
	_ = cmd.MarkFlagRequired("count")
	_ = cmd.MarkFlagRequired("award")

	return cmd
}

func newMilestonesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List milestones in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withService(cmd.Context(), func(svc service.ReferralService) error {
				milestones, err := svc.ListMilestones(cmd.Context())
				if err != nil {
					return err
				}
				if len(milestones) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No milestones.")
					return nil
				}

				t := table.New().
					Border(lipgloss.NormalBorder()).
					Headers("REFERRAL COUNT", "AWARD")
				for _, m := range milestones {
					t.Row(strconv.Itoa(m.ReferralCount), strconv.Itoa(m.Award))
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	}
}
