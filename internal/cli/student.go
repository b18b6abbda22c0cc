package cli

import (
	"github.com/spf13/cobra"
)

func newStudentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Student subjects, grades and enrollment",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "subjects",
			Short: "List enrolled subjects",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				subjects, err := application.Client.GetSubjectsEnrolled(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, subjects)
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Show the student profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				info, err := application.Client.GetStudentInfo(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, info)
			},
		},
		&cobra.Command{
			Use:   "term-grade <class> <term>",
			Short: "Show the grade for one term",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class", "term")
				if err != nil {
					return err
				}
				grades, err := application.Client.GetSubjectTermGrades(cmd.Context(), ids[0], ids[1])
				if err != nil {
					return err
				}
				return printJSON(cmd, grades)
			},
		},
		&cobra.Command{
			Use:   "sem-grade <class>",
			Short: "Show the semester grade",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class")
				if err != nil {
					return err
				}
				grades, err := application.Client.GetSubjectSemGrades(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, grades)
			},
		},
		&cobra.Command{
			Use:   "scores <class> <term> <category>",
			Short: "List scores for one grading category",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class", "term", "category")
				if err != nil {
					return err
				}
				scores, err := application.Client.GetScoresPerCategory(cmd.Context(), ids[0], ids[1], ids[2])
				if err != nil {
					return err
				}
				return printJSON(cmd, scores)
			},
		},
		&cobra.Command{
			Use:   "enroll <key>",
			Short: "Enroll in a class by its key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := application.Client.EnrollSubject(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			},
		},
	)

	return cmd
}
