package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/eventdesk/internal/client/client"
	"github.com/dmitrijs2005/eventdesk/internal/client/config"
	"github.com/dmitrijs2005/eventdesk/internal/client/credentials"
	"github.com/dmitrijs2005/eventdesk/internal/client/screens"
	"github.com/dmitrijs2005/eventdesk/internal/client/services"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
)

type App struct {
	config *config.Config
	log    logging.Logger
	store  *credentials.Store

	authService         services.AuthService
	eventService        services.EventService
	notificationService services.NotificationService

	pendingList  *screens.ListScreen
	approvedList *screens.ListScreen
	form         *screens.FormScreen

	reader *bufio.Reader
	out    io.Writer

	// lastFailed re-runs the last command that failed with a retryable
	// outcome.
	lastFailed  func(context.Context) error
	redirecting bool
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewTextLogger(os.Stderr, c.LogLevel)

	store, err := credentials.Open(ctx, c, log)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	api := client.New(c.BaseURL(), store,
		client.WithLogger(log.With("component", "api")),
		client.WithDefaultTimeout(c.RequestTimeout),
		client.WithUnauthorizedHook(func(ctx context.Context) {
			log.Info(ctx, "session cleared after 401")
		}),
	)

	a := newApp(api, store, log, bufio.NewReader(os.Stdin), os.Stdout)
	a.config = c
	a.store = store
	return a, nil
}

// newApp wires services and screens around api; tests use it directly.
func newApp(api client.API, store services.SessionStore, log logging.Logger, r *bufio.Reader, w io.Writer) *App {
	auth := services.NewAuthService(api, store, log)
	events := services.NewEventService(api, store, log)

	return &App{
		log:                 log,
		authService:         auth,
		eventService:        events,
		notificationService: services.NewNotificationService(api),
		pendingList:         screens.NewListScreen(screens.FilterPending, events, auth),
		approvedList:        screens.NewListScreen(screens.FilterApproved, events, auth),
		form:                screens.NewFormScreen(events),
		reader:              r,
		out:                 w,
	}
}

// Run restores the persisted session, asks for credentials when there is
// none and runs the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "Welcome to eventdesk (type 'help' for commands)")

	cred, err := a.authService.Restore(ctx)
	switch {
	case err != nil:
		a.report(ctx, err, nil)
	case cred != nil:
		fmt.Fprintf(a.out, "Signed in as %s (%s)\n", cred.User.Email, cred.User.Role)
	default:
		_ = a.Login(ctx)
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "close credential store", "error", err)
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.authService.Current(ctx) != nil
}

func (a *App) status(ctx context.Context) string {
	cred := a.authService.Current(ctx)
	if cred == nil {
		return "(guest)"
	}
	return fmt.Sprintf("(%s %s)", cred.User.Email, cred.User.Role)
}

// do runs cmd and reports its outcome.
func (a *App) do(ctx context.Context, cmd func(context.Context) error) error {
	err := cmd(ctx)
	a.report(ctx, err, cmd)
	return err
}

// report shows err the way screens.Present describes it. Retryable
// failures remember cmd for the retry command; a lost session brings the
// login prompt back.
func (a *App) report(ctx context.Context, err error, cmd func(context.Context) error) {
	if err == nil {
		a.lastFailed = nil
		return
	}
	a.log.Debug(ctx, "command failed", "error", err)

	p := screens.Present(err)
	fmt.Fprintln(a.out, "Error:", p.Message)

	if p.Retry && cmd != nil {
		a.lastFailed = cmd
		fmt.Fprintln(a.out, "Type 'retry' to try again.")
	} else {
		a.lastFailed = nil
	}

	if p.Logout && p.Redirect == screens.RedirectLogin && !a.redirecting {
		a.redirecting = true
		defer func() { a.redirecting = false }()
		a.pendingList.Blur()
		a.approvedList.Blur()
		_ = a.Login(ctx)
	}
}

// Retry re-runs the last command that failed with a retryable outcome.
func (a *App) Retry(ctx context.Context) error {
	if a.lastFailed == nil {
		fmt.Fprintln(a.out, "Nothing to retry.")
		return nil
	}
	return a.do(ctx, a.lastFailed)
}
