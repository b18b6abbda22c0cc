package cli

import (
	"github.com/spf13/cobra"
)

func newChoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "choices",
		Short: "Lookup lists used by registration and grading",
	}

	list := func(use, short string, fetch func(cmd *cobra.Command) (any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := fetch(cmd)
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			},
		}
	}

	cmd.AddCommand(
		list("courses", "List courses", func(cmd *cobra.Command) (any, error) {
			return application.Client.GetCourses(cmd.Context())
		}),
		list("semesters", "List semesters", func(cmd *cobra.Command) (any, error) {
			return application.Client.GetSemesters(cmd.Context())
		}),
		list("terms", "List terms", func(cmd *cobra.Command) (any, error) {
			return application.Client.GetTerms(cmd.Context())
		}),
		list("categories", "List grading categories", func(cmd *cobra.Command) (any, error) {
			return application.Client.GetCategories(cmd.Context())
		}),
	)

	return cmd
}

func newCompositionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "composition <class>",
		Short: "Show how a class weighs its grading categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := intArgs(args, "class")
			if err != nil {
				return err
			}
			comp, err := application.Client.GetGradingComposition(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, comp)
		},
	}
}
