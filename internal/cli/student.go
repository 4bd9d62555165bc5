package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/course"
)

// studentCmds is the surface available to every course member.
func (a *app) studentCmds() []*cobra.Command {
	submit := &cobra.Command{
		Use:   "submit <assignment>",
		Short: "submits an assignment (or tells you why it cannot be submitted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleStudent); err != nil {
				return err
			}
			return a.ctx.Submit(args[0])
		},
	}

	setup := &cobra.Command{
		Use:   "setup <assignment>",
		Short: "copies setup code for an assignment (if provided by the instructor)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleStudent); err != nil {
				return err
			}
			return a.ctx.Setup(args[0])
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "summarizes submissions and currently visible assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleStudent); err != nil {
				return err
			}
			rendered, err := a.ctx.Summary()
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}

	details := &cobra.Command{
		Use:   "details <assignment>",
		Short: "shows an assignment's dates, files, and your standing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleStudent); err != nil {
				return err
			}
			rendered, err := a.ctx.Details(args[0])
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
	}

	grace := &cobra.Command{
		Use:   "grace <assignment> <days>",
		Short: "spends grace days to shift your due date for an assignment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleStudent); err != nil {
				return err
			}
			days, err := parseDays(args[1])
			if err != nil {
				return err
			}
			return a.ctx.AwardGrace(args[0], a.ctx.User, days)
		},
	}

	return []*cobra.Command{submit, setup, summary, details, grace}
}

func parseDays(arg string) (int64, error) {
	days, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || days < 0 {
		return 0, apperr.Custom(
			fmt.Sprintf("Invalid day count: %q", arg),
			"Please enter a non-negative whole number of days.")
	}
	return days, nil
}
