package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/classtools/asgn/internal/course"
)

// instructorCmds is the course administration surface.
func (a *app) instructorCmds() []*cobra.Command {
	cmds := []*cobra.Command{
		a.membershipCmd("add-students", "adds the listed students to the course",
			func(usernames []string) error { return a.ctx.AddStudents(usernames) }),
		a.membershipCmd("rem-students", "removes the listed students from the course",
			func(usernames []string) error { return a.ctx.RemoveStudents(usernames) }),
		a.membershipCmd("add-graders", "adds the listed graders to the course",
			func(usernames []string) error { return a.ctx.AddGraders(usernames) }),
		a.membershipCmd("rem-graders", "removes the listed graders from the course",
			func(usernames []string) error { return a.ctx.RemoveGraders(usernames) }),
		a.membershipCmd("add-asgns", "adds the listed assignments to the course manifest",
			func(names []string) error { return a.ctx.AddAssignments(names) }),
		a.membershipCmd("rem-asgns", "removes the listed assignments from the course manifest",
			func(names []string) error { return a.ctx.RemoveAssignments(names) }),

		a.dateCmd("set-due", "sets the due date of an assignment", course.DateDue),
		a.dateCmd("set-open", "sets the open date of an assignment", course.DateOpen),
		a.dateCmd("set-close", "sets the close date of an assignment", course.DateClose),
		a.unsetDateCmd("unset-due", "removes the due date of an assignment", course.DateDue),
		a.unsetDateCmd("unset-open", "removes the open date of an assignment", course.DateOpen),
		a.unsetDateCmd("unset-close", "removes the close date of an assignment", course.DateClose),

		a.toggleCmd("enable", "enables an assignment, allowing submission",
			func(name string) error { return a.ctx.SetActive(name, true) }),
		a.toggleCmd("disable", "disables an assignment, disallowing submission",
			func(name string) error { return a.ctx.SetActive(name, false) }),
		a.toggleCmd("publish", "publishes an assignment in the course summary",
			func(name string) error { return a.ctx.SetVisible(name, true) }),
		a.toggleCmd("unpublish", "hides an assignment from the course summary",
			func(name string) error { return a.ctx.SetVisible(name, false) }),
	}

	listAsgns := &cobra.Command{
		Use:   "list-asgns",
		Short: "lists the course's assignments",
		Args:  cobra.NoArgs,
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			rendered, err := a.ctx.ListAssignments()
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		}),
	}

	var asgnFilter, userFilter string
	listSubs := &cobra.Command{
		Use:   "list-subs",
		Short: "lists the course's current submissions",
		Args:  cobra.NoArgs,
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			rendered, err := a.ctx.ListSubmissions(asgnFilter, userFilter)
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		}),
	}
	listSubs.Flags().StringVar(&asgnFilter, "asgn", "", "limit to one assignment")
	listSubs.Flags().StringVar(&userFilter, "user", "", "limit to one student")

	extend := &cobra.Command{
		Use:   "extend <assignment> <student> <days>",
		Short: "grants a day extension to a student for an assignment",
		Args:  cobra.ExactArgs(3),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args[2])
			if err != nil {
				return err
			}
			return a.ctx.Extend(args[0], args[1], days)
		}),
	}

	setGrace := &cobra.Command{
		Use:   "set-grace <assignment> <student> <days>",
		Short: "sets the grace days a student spends on an assignment",
		Args:  cobra.ExactArgs(3),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args[2])
			if err != nil {
				return err
			}
			return a.ctx.AwardGrace(args[0], args[1], days)
		}),
	}

	graceTotal := &cobra.Command{
		Use:   "grace-total <days>",
		Short: "sets the course-wide grace day budget",
		Args:  cobra.ExactArgs(1),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args[0])
			if err != nil {
				return err
			}
			return a.ctx.SetGraceTotal(days)
		}),
	}

	graceLimit := &cobra.Command{
		Use:   "grace-limit <days>",
		Short: "sets the per-assignment grace day limit",
		Args:  cobra.ExactArgs(1),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			days, err := parseDays(args[0])
			if err != nil {
				return err
			}
			return a.ctx.SetGraceLimit(days)
		}),
	}

	updateScores := &cobra.Command{
		Use:   "update-scores <assignment>",
		Short: "updates published scores for an assignment from current submissions",
		Args:  cobra.ExactArgs(1),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return a.ctx.UpdateScores(args[0])
		}),
	}

	updateAllScores := &cobra.Command{
		Use:   "update-all-scores",
		Short: "updates published scores for every assignment",
		Args:  cobra.NoArgs,
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return a.ctx.UpdateAllScores()
		}),
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "repairs the state of the course directory",
		Args:  cobra.NoArgs,
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return a.ctx.Refresh()
		}),
	}

	return append(cmds,
		listAsgns, listSubs, extend, setGrace,
		graceTotal, graceLimit, updateScores, updateAllScores, refresh)
}

func (a *app) instructorRunE(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.ctx.Require(course.RoleInstructor); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

func (a *app) membershipCmd(use, short string, run func([]string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <usernames...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return run(args)
		}),
	}
}

func (a *app) dateCmd(use, short string, field course.DateField) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <assignment> <yyyy-mm-dd>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return a.ctx.SetDate(args[0], field, args[1])
		}),
	}
}

func (a *app) toggleCmd(use, short string, run func(string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <assignment>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		}),
	}
}

func (a *app) unsetDateCmd(use, short string, field course.DateField) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <assignment>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: a.instructorRunE(func(cmd *cobra.Command, args []string) error {
			return a.ctx.UnsetDate(args[0], field)
		}),
	}
}
