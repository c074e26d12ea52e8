package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris-regnier/daybook/internal/auth"
	"github.com/chris-regnier/daybook/internal/ui"
)

type loginOptions struct {
	Email       string
	Password    string
	Provider    string
	IDToken     string
	AccessToken string
}

var loginOpts loginOptions

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to sync your diary",
	Long: `Sign in with email and password, or with a Google or Apple token. The
session is kept in the data directory so later commands stay signed in.
Missing email or password are asked for on the terminal.`,
	Example: `  daybook login --email me@example.com
  daybook login --provider google --id-token "$GOOGLE_ID_TOKEN"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return loginRun(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), loginOpts, false)
	},
}

var signupCmd = &cobra.Command{
	Use:     "signup",
	Short:   "Create an account and sign in",
	Example: `  daybook signup --email me@example.com`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return loginRun(cmd.Context(), cmd.OutOrStdout(), cmd.InOrStdin(), loginOpts, true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		authClient.SignOut()
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return whoamiRun(cmd.OutOrStdout())
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVarP(&loginOpts.Email, "email", "e", "", "account email")
		c.Flags().StringVar(&loginOpts.Password, "password", "", "account password (prompted when omitted)")
	}
	loginCmd.Flags().StringVar(&loginOpts.Provider, "provider", "", "federated provider (google|apple)")
	loginCmd.Flags().StringVar(&loginOpts.IDToken, "id-token", "", "provider ID token")
	loginCmd.Flags().StringVar(&loginOpts.AccessToken, "access-token", "", "provider access token")
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}

func providerID(name string) (string, error) {
	switch strings.ToLower(name) {
	case "google", auth.ProviderGoogle:
		return auth.ProviderGoogle, nil
	case "apple", auth.ProviderApple:
		return auth.ProviderApple, nil
	default:
		return "", userError(fmt.Errorf("unknown provider %q (use google|apple)", name))
	}
}

func loginRun(ctx context.Context, w io.Writer, in io.Reader, opts loginOptions, signUp bool) error {
	var res auth.Result
	if opts.Provider != "" {
		id, err := providerID(opts.Provider)
		if err != nil {
			return err
		}
		if opts.IDToken == "" && opts.AccessToken == "" {
			return userError(errors.New("--provider needs --id-token or --access-token"))
		}
		res = authClient.SignInWithCredential(ctx, auth.Credential{
			ProviderID:  id,
			IDToken:     opts.IDToken,
			AccessToken: opts.AccessToken,
		})
	} else {
		r := bufio.NewReader(in)
		if opts.Email == "" {
			fmt.Fprint(os.Stderr, "Email: ")
			opts.Email = readLine(r)
		}
		if opts.Password == "" {
			opts.Password = readPassword(in, r)
		}
		if signUp {
			res = authClient.SignUp(ctx, opts.Email, opts.Password)
		} else {
			res = authClient.SignIn(ctx, opts.Email, opts.Password)
		}
	}

	if !res.Success {
		return userError(res.Err)
	}
	if jsonOutput {
		return ui.FormatJSON(w, res.User)
	}
	fmt.Fprintf(w, "Signed in as %s.\n", userLabel(res.User))
	return nil
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// readPassword reads without echo when in is a terminal, otherwise one line
// of r.
func readPassword(in io.Reader, r *bufio.Reader) string {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return readLine(r)
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(b)
}

func userLabel(u *auth.User) string {
	name := u.Email
	if name == "" {
		name = u.DisplayName
	}
	if name == "" {
		return u.UID
	}
	return fmt.Sprintf("%s (%s)", name, u.UID)
}

type whoamiJSON struct {
	SignedIn bool       `json:"signed_in"`
	User     *auth.User `json:"user,omitempty"`
}

func whoamiRun(w io.Writer) error {
	u := authClient.CurrentUser()
	if jsonOutput {
		return ui.FormatJSON(w, whoamiJSON{SignedIn: u != nil, User: u})
	}
	if u == nil {
		fmt.Fprintln(w, "Not signed in.")
		return nil
	}
	fmt.Fprintf(w, "Signed in as %s.\n", userLabel(u))
	return nil
}
