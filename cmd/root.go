package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/chris-regnier/daybook/internal/auth"
	"github.com/chris-regnier/daybook/internal/config"
	"github.com/chris-regnier/daybook/internal/editor"
	"github.com/chris-regnier/daybook/internal/entry"
	"github.com/chris-regnier/daybook/internal/firebaseapp"
	"github.com/chris-regnier/daybook/internal/journal"
	"github.com/chris-regnier/daybook/internal/logging"
	"github.com/chris-regnier/daybook/internal/photo"
	"github.com/chris-regnier/daybook/internal/session"
	"github.com/chris-regnier/daybook/internal/shell"
	"github.com/chris-regnier/daybook/internal/storage"
	"github.com/chris-regnier/daybook/internal/ui"
)

var (
	cfgFile        string
	jsonOutput     bool
	storageBackend string
	appConfig      *config.Config
	logger         = logging.Nop()
	authClient     *auth.Client
	opener         session.Opener

	// diary is the open journal; commands that need it call openDiary first.
	diary    *journal.Store
	sessions *session.Manager
	detach   func()
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "A personal diary",
	Long: `daybook keeps a personal diary of dated entries with a title, a story and
up to five photos. Run it without a subcommand to open the interactive browser.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		appConfig = cfg

		if storageBackend != "" {
			appConfig.Storage = storageBackend
		}
		if !slices.Contains(config.Backends, appConfig.Storage) {
			return userError(fmt.Errorf("unknown storage backend: %s (use %s)", appConfig.Storage, strings.Join(config.Backends, "|")))
		}

		logger = logging.New(appConfig.Log)

		authClient, err = newAuthClient(cmd.Context())
		if err != nil {
			return err
		}
		opener = session.NewOpener(appConfig, logger)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			if err := openDiary(false); err != nil {
				return err
			}
			return listRun(cmd.OutOrStdout(), listOptions{})
		}
		if err := openDiary(true); err != nil {
			return err
		}
		return ui.RunBrowser(diary, ui.BrowserConfig{
			Editor:   editor.ResolveEditor(appConfig.Editor),
			MaxWidth: appConfig.MaxWidth,
			Theme:    ui.ResolveTheme(appConfig.Theme),
			Photos:   photoLibrary(),
		})
	},
}

// Execute runs the root command and closes the journal afterwards, flushing
// any pending saves even when the command failed.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeDiary(); err == nil {
		err = cerr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "storage backend ("+strings.Join(config.Backends, "|")+")")

	// Errors are printed by main with the matching exit code.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// newAuthClient builds the auth client from the firebase settings and
// restores any persisted session.
func newAuthClient(ctx context.Context) (*auth.Client, error) {
	var provider auth.Provider = unconfiguredProvider{}
	if appConfig.Firebase.APIKey != "" {
		tk, err := auth.NewToolkit(ctx, appConfig.Firebase.APIKey)
		if err != nil {
			return nil, fmt.Errorf("initializing auth: %w", err)
		}
		provider = tk
	}

	opts := []auth.Option{auth.WithSessionFile(auth.NewSessionFile(appConfig.DataDir))}
	if appConfig.Firebase.ProjectID != "" && appConfig.Firebase.CredentialsFile != "" {
		if v, err := tokenVerifier(ctx); err != nil {
			logger.Warnw("token verification unavailable", "error", err)
		} else {
			opts = append(opts, auth.WithVerifier(v))
		}
	}

	client := auth.New(provider, logger, opts...)
	if err := client.Restore(ctx); err != nil {
		logger.Warnw("restoring session", "error", err)
	}
	return client, nil
}

func tokenVerifier(ctx context.Context) (auth.TokenVerifier, error) {
	app, err := firebaseapp.New(ctx, appConfig.Firebase)
	if err != nil {
		return nil, err
	}
	return firebaseapp.Auth(ctx, app)
}

var errAuthNotConfigured = errors.New("sign-in is not configured: set firebase.api_key")

type unconfiguredProvider struct{}

func (unconfiguredProvider) SignIn(context.Context, string, string) (auth.Session, error) {
	return auth.Session{}, errAuthNotConfigured
}

func (unconfiguredProvider) SignUp(context.Context, string, string) (auth.Session, error) {
	return auth.Session{}, errAuthNotConfigured
}

func (unconfiguredProvider) SignInWithCredential(context.Context, auth.Credential) (auth.Session, error) {
	return auth.Session{}, errAuthNotConfigured
}

// openDiary binds a session manager to the auth client and exposes the
// current user's journal as diary. Backends other than firestore also open
// while signed out.
func openDiary(live bool) error {
	if diary != nil {
		return nil
	}
	var opts []session.BindOption
	if appConfig.Storage != "firestore" {
		opts = append(opts, session.WithSignedOutSession())
	}
	sessions, detach = session.Bind(authClient, opener, live, logger, nil, opts...)

	cur := sessions.Current()
	if cur == nil {
		err := sessions.Err()
		if err == nil || errors.Is(err, storage.ErrUnauthenticated) {
			return userError(errors.New("not signed in: sign in with daybook login"))
		}
		return err
	}
	diary = cur.Journal
	dataDir := appConfig.DataDir
	diary.OnChange(func([]entry.Entry) {
		if err := shell.InvalidateCache(dataDir); err != nil {
			logger.Warnw("dropping prompt cache", "error", err)
		}
	})
	return nil
}

// currentSession returns the open session, or nil.
func currentSession() *session.Session {
	if sessions == nil {
		return nil
	}
	return sessions.Current()
}

func closeDiary() error {
	if sessions == nil {
		return nil
	}
	detach()
	err := sessions.Close(context.Background())
	sessions, detach, diary = nil, nil, nil
	return err
}

func photoLibrary() *photo.Library {
	return photo.NewLibrary(filepath.Join(appConfig.DataDir, "photos"))
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
