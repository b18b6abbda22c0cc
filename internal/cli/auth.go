package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/spf13/cobra"
)

type sessionView struct {
	LoggedIn    bool                    `json:"loggedIn"`
	Username    string                  `json:"username,omitempty"`
	FirstName   string                  `json:"fname,omitempty"`
	LastName    string                  `json:"lname,omitempty"`
	Role        string                  `json:"role,omitempty"`
	Destination classrecord.Destination `json:"destination"`
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: "Sign in with a username and password. Missing values are read from stdin,\n" +
			"one per line. Any previous session is discarded first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username == "" {
				if username, err = prompt(cmd, in, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd, in, "Password: "); err != nil {
					return err
				}
			}

			resp, err := application.Client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			return printJSON(cmd, sessionView{
				LoggedIn:    true,
				Username:    resp.Username,
				FirstName:   resp.FirstName,
				LastName:    resp.LastName,
				Role:        resp.Role,
				Destination: classrecord.RoleToDestination(resp.Role),
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

// prompt writes label to stderr and reads one trimmed line from in.
func prompt(cmd *cobra.Command, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
		}
		return "", fmt.Errorf("%s is required", strings.ToLower(strings.TrimSuffix(label, ": ")))
	}
	return line, nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := application.Client.Logout(cmd.Context()); err != nil {
				return err
			}
			return printJSON(cmd, sessionView{Destination: classrecord.DestinationUnauthorized})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session and where it lands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := application.Client

			role := client.Role(ctx)
			view := sessionView{
				LoggedIn:    client.LoggedIn(ctx),
				Role:        role,
				Destination: classrecord.RoleToDestination(role),
			}
			if p, ok := client.Profile(ctx); ok {
				view.Username = p.Username
				view.FirstName = p.FirstName
				view.LastName = p.LastName
			}
			return printJSON(cmd, view)
		},
	}
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a student account",
	}
	cmd.AddCommand(newRegisterStudentCmd(), newRegisterUsernameCmd())
	return cmd
}

func newRegisterStudentCmd() *cobra.Command {
	var req classrecord.Register

	cmd := &cobra.Command{
		Use:   "student",
		Short: "Start a registration; the server sends a one-time code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := application.Client.RegisterStudent(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.FirstName, "fname", "", "First name")
	f.StringVar(&req.MiddleName, "mname", "", "Middle name")
	f.StringVar(&req.LastName, "lname", "", "Last name")
	f.StringVar(&req.Email, "email", "", "Email address")
	f.BoolVar(&req.Gender, "male", false, "Registering student is male")
	f.StringVar(&req.DOB, "dob", "", "Date of birth (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("fname")
	_ = cmd.MarkFlagRequired("lname")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterUsernameCmd() *cobra.Command {
	var (
		otp string
		req classrecord.UsernamePassword
	)

	cmd := &cobra.Command{
		Use:   "username",
		Short: "Finish a registration with the one-time code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.CourseID <= 0 {
				return errors.New("--course must be a course id; see `classrecord choices courses`")
			}
			resp, err := application.Client.RegisterStudentUsername(cmd.Context(), otp, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	f := cmd.Flags()
	f.StringVar(&otp, "otp", "", "One-time code from the registration")
	f.StringVar(&req.Username, "username", "", "Username to claim")
	f.StringVar(&req.Password, "password", "", "Password")
	f.IntVar(&req.CourseID, "course", 0, "Course id")
	_ = cmd.MarkFlagRequired("otp")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
