package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/config"
	"github.com/classtools/asgn/internal/course"
)

// app carries the resolved course context into every command handler.
type app struct {
	cfg        config.Config
	instructor string
	courseName string
	ctx        *course.Context
}

func Execute(cfg config.Config) error {
	a := &app{cfg: cfg}
	return a.rootCmd().Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "asgn",
		Short:         "A program for managing code assignments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			if a.instructor == "" || a.courseName == "" {
				return apperr.Custom(
					"An instructor and course must be named.",
					"Pass --instructor and --course, or set ASGN_INSTRUCTOR and ASGN_COURSE.")
			}
			ctx, err := course.Deduce(a.cfg, a.instructor, a.courseName)
			if err != nil {
				return err
			}
			a.ctx = ctx
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.instructor, "instructor", "i",
		os.Getenv("ASGN_INSTRUCTOR"), "username of the course instructor")
	root.PersistentFlags().StringVarP(&a.courseName, "course", "c",
		os.Getenv("ASGN_COURSE"), "name of the course")

	root.AddCommand(a.studentCmds()...)
	root.AddCommand(a.graderCmds()...)
	root.AddCommand(a.instructorCmds()...)
	return root
}
