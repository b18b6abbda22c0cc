package cli

import (
	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/spf13/cobra"
)

func newTeacherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Teacher views and attendance",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "loads",
			Short: "List teaching loads with their classes",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				loads, err := application.Client.GetTeachingLoad(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, loads)
			},
		},
		&cobra.Command{
			Use:   "enrolled <class>",
			Short: "List students enrolled in a class",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class")
				if err != nil {
					return err
				}
				students, err := application.Client.GetEnrolled(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, students)
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Show the teacher profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				info, err := application.Client.GetTeacherInfo(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, info)
			},
		},
		&cobra.Command{
			Use:   "attendance <class> <term>",
			Short: "List attendance sessions for a class and term",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class", "term")
				if err != nil {
					return err
				}
				sessions, err := application.Client.GetAttendance(cmd.Context(), ids[0], ids[1])
				if err != nil {
					return err
				}
				return printJSON(cmd, sessions)
			},
		},
		&cobra.Command{
			Use:   "open-attendance <class> <term>",
			Short: "Open a new attendance session",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class", "term")
				if err != nil {
					return err
				}
				resp, err := application.Client.PostAttendance(cmd.Context(), classrecord.PostAttendance{
					TeachingLoadDetailID: ids[0],
					TermID:               ids[1],
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			},
		},
		&cobra.Command{
			Use:   "record <class> <term> <student>",
			Short: "Mark a student present in the latest session",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class", "term", "student")
				if err != nil {
					return err
				}
				resp, err := application.Client.RecordAttendance(cmd.Context(), classrecord.RecordAttendance{
					TeachingLoadDetailID: ids[0],
					TermID:               ids[1],
					StudentID:            ids[2],
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			},
		},
	)

	return cmd
}
