// Package app composes the client: it owns every long-lived dependency and
// the page views, and keeps navigation and session state in step.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/appointments"
	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/booking"
	"github.com/wolfman30/healthcare-client/internal/config"
	"github.com/wolfman30/healthcare-client/internal/credentials"
	"github.com/wolfman30/healthcare-client/internal/directory"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/navigation"
	"github.com/wolfman30/healthcare-client/internal/notification"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/internal/session"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// Deps are the dependencies built at startup.
type Deps struct {
	Config      *config.Config
	Logger      *logging.Logger
	Metrics     *metrics.GatewayMetrics
	Credentials credentials.Store
	Gateway     *gateway.Client
}

// App is the root of the client. Every view is created from it and every
// login, signup and logout goes through it.
type App struct {
	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.GatewayMetrics
	gateway  *gateway.Client
	sessions *session.Store
	nav      *navigation.Controller
	notifier *notification.Notifier

	mu        sync.Mutex
	directory *directory.ViewModel
	searchDir *directory.ViewModel
	search    *directory.Search
	review    *appointments.Review
}

// New wires an App. Config and Gateway are required.
func New(d Deps) (*App, error) {
	if d.Config == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if d.Gateway == nil {
		return nil, fmt.Errorf("app: gateway is required")
	}
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	if d.Credentials == nil {
		d.Credentials = credentials.NewMemoryStore()
	}
	return &App{
		cfg:      d.Config,
		logger:   d.Logger,
		metrics:  d.Metrics,
		gateway:  d.Gateway,
		sessions: session.NewStore(d.Gateway, d.Credentials, d.Logger, d.Metrics),
		nav:      navigation.NewController(),
		notifier: notification.New(),
	}, nil
}

// State is the current navigation state.
func (a *App) State() navigation.State {
	return a.nav.Snapshot()
}

// ReachablePages is the navigation menu for the current role.
func (a *App) ReachablePages() []navigation.Page {
	return navigation.ReachablePages(a.nav.Snapshot().Role)
}

// CanOpenAuth reports whether login and signup are offered.
func (a *App) CanOpenAuth() bool {
	return a.nav.CanOpenAuth()
}

// Session returns the active session.
func (a *App) Session() (*models.Session, bool) {
	return a.sessions.Current()
}

// Notifier is the shared result notification.
func (a *App) Notifier() *notification.Notifier {
	return a.notifier
}

// Navigate switches to page and loads it. Pages outside the current role's
// menu are refused.
func (a *App) Navigate(ctx context.Context, page navigation.Page) error {
	if !a.nav.Reachable(page) {
		return apperr.Validation("navigate", fmt.Sprintf("The %s page is not available.", page))
	}
	a.transition(ctx, func() { a.nav.Navigate(page) })
	return nil
}

// OpenLogin shows the login overlay for role.
func (a *App) OpenLogin(ctx context.Context, role models.Role) error {
	if err := a.checkAuthOverlay(role); err != nil {
		return err
	}
	a.transition(ctx, func() { a.nav.OpenLogin(role) })
	return nil
}

// OpenSignup shows the signup overlay for role.
func (a *App) OpenSignup(ctx context.Context, role models.Role) error {
	if err := a.checkAuthOverlay(role); err != nil {
		return err
	}
	a.transition(ctx, func() { a.nav.OpenSignup(role) })
	return nil
}

func (a *App) checkAuthOverlay(role models.Role) error {
	if !role.Valid() {
		return apperr.Validation("open_auth", "Choose user or doctor.")
	}
	if !a.nav.CanOpenAuth() {
		return apperr.Validation("open_auth", "You are already logged in.")
	}
	return nil
}

// CloseOverlay closes the login or signup overlay.
func (a *App) CloseOverlay() {
	a.nav.CloseOverlay()
}

// Login authenticates and returns to the home page. On failure the overlay
// stays open.
func (a *App) Login(ctx context.Context, role models.Role, email, password string) (*models.Session, error) {
	sess, err := a.sessions.Login(ctx, role, email, password)
	if err != nil {
		return nil, err
	}
	a.transition(ctx, func() { a.nav.OnAuthSuccess(sess) })
	return sess, nil
}

// Signup registers an account, signs it in and returns to the home page.
func (a *App) Signup(ctx context.Context, form session.SignupForm) (*models.Session, error) {
	sess, err := a.sessions.Signup(ctx, form)
	if err != nil {
		return nil, err
	}
	a.transition(ctx, func() { a.nav.OnAuthSuccess(sess) })
	return sess, nil
}

// Logout ends the session and returns to the home page.
func (a *App) Logout(ctx context.Context) {
	a.sessions.Logout()
	a.transition(ctx, a.nav.OnLogout)
	a.logger.Info("logged out")
}

// transition applies a navigation change, closing the view of the page that
// was left and opening the view of the page that was entered.
func (a *App) transition(ctx context.Context, change func()) {
	prev := a.nav.Snapshot().Page
	change()
	next := a.nav.Snapshot().Page
	if prev == next {
		return
	}
	a.leave(prev)
	a.enter(ctx, next)
}

func (a *App) leave(page navigation.Page) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch page {
	case navigation.PageDoctors:
		if a.directory != nil {
			a.directory.Close()
			a.directory = nil
		}
	case navigation.PageSearch:
		if a.searchDir != nil {
			a.searchDir.Close()
			a.searchDir = nil
			a.search = nil
		}
	case navigation.PageAppointment:
		if a.review != nil {
			a.review.Close()
			a.review = nil
		}
	}
}

func (a *App) enter(ctx context.Context, page navigation.Page) {
	switch page {
	case navigation.PageDoctors:
		vm := a.newDirectory()
		a.mu.Lock()
		a.directory = vm
		a.mu.Unlock()
		vm.Refresh(ctx)
	case navigation.PageSearch:
		vm := a.newDirectory()
		a.mu.Lock()
		a.searchDir = vm
		a.search = directory.NewSearch(vm)
		a.mu.Unlock()
		vm.Refresh(ctx)
	case navigation.PageAppointment:
		review := a.newReview()
		a.mu.Lock()
		a.review = review
		a.mu.Unlock()
		if _, err := review.Load(ctx); err != nil {
			a.logger.Debug("appointment page loaded with error", "error", err)
		}
	}
}

func (a *App) newDirectory() *directory.ViewModel {
	return directory.NewViewModel(a.gateway, a.gateway, a.sessions,
		directory.WithLogger(a.logger),
		directory.WithMetrics(a.metrics),
		directory.WithBookingOptions(
			booking.WithNotifier(a.notifier),
			booking.WithSlot(booking.Slot{From: a.cfg.BookingFrom, To: a.cfg.BookingTo}),
		),
	)
}

func (a *App) newReview() *appointments.Review {
	return appointments.NewReview(a.gateway, a.sessions,
		appointments.WithNotifier(a.notifier),
		appointments.WithLogger(a.logger),
		appointments.WithMetrics(a.metrics),
		appointments.WithFallback(a.cfg.AppointmentsFallback),
	)
}

// Directory is the doctors page view, or nil when that page is not shown.
func (a *App) Directory() *directory.ViewModel {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.directory
}

// Search is the search page view, or nil when that page is not shown.
func (a *App) Search() *directory.Search {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.search
}

// AppointmentReview is the appointment page view, or nil when that page is
// not shown.
func (a *App) AppointmentReview() *appointments.Review {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.review
}

// Close discards every open view.
func (a *App) Close() {
	for _, page := range []navigation.Page{navigation.PageDoctors, navigation.PageSearch, navigation.PageAppointment} {
		a.leave(page)
	}
}
