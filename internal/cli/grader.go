package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classtools/asgn/internal/course"
	"github.com/classtools/asgn/internal/table"
)

// graderCmds extends the student surface with submission inspection.
func (a *app) graderCmds() []*cobra.Command {
	copyCmd := &cobra.Command{
		Use:   "copy <assignment> <student>",
		Short: "copies a student's submission into the current directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleGrader); err != nil {
				return err
			}
			return a.ctx.CopySubmission(args[0], args[1])
		},
	}

	copyAll := &cobra.Command{
		Use:   "copy-all <assignment>",
		Short: "copies every student's submission into the current directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleGrader); err != nil {
				return err
			}
			return a.ctx.CopyAllSubmissions(args[0])
		},
	}

	grade := &cobra.Command{
		Use:   "grade <assignment> <student>",
		Short: "retrieves a submission and runs the grading pipeline against it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleGrader); err != nil {
				return err
			}
			return a.ctx.GradeSubmission(args[0], args[1])
		},
	}

	var descending bool
	rank := &cobra.Command{
		Use:   "rank <assignment> <metric>",
		Short: "ranks students by one of an assignment's score metrics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctx.Require(course.RoleGrader); err != nil {
				return err
			}
			rows, err := a.ctx.Rank(args[0], args[1], descending)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return nil
			}
			t := table.New(len(rows[0]))
			for _, row := range rows {
				if err := t.AddRow(row...); err != nil {
					return err
				}
			}
			fmt.Print(t.String())
			return nil
		},
	}
	rank.Flags().BoolVar(&descending, "desc", false, "sort highest first")

	return []*cobra.Command{copyCmd, copyAll, grade, rank}
}
