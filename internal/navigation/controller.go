// Package navigation decides which page and which overlay are active.
package navigation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/models"
)

// Page is a top-level view.
type Page string

const (
	PageHome        Page = "home"
	PageDoctors     Page = "doctors"
	PageAppointment Page = "appointment"
	PageSearch      Page = "search"
)

// Overlay is a modal drawn above the page.
type Overlay string

const (
	OverlayNone         Overlay = "none"
	OverlayLogin        Overlay = "login"
	OverlaySignupUser   Overlay = "signup-user"
	OverlaySignupDoctor Overlay = "signup-doctor"
)

// ParsePage maps a page name to a Page.
func ParsePage(s string) (Page, error) {
	switch p := Page(strings.ToLower(strings.TrimSpace(s))); p {
	case PageHome, PageDoctors, PageAppointment, PageSearch:
		return p, nil
	default:
		return "", fmt.Errorf("unknown page %q", s)
	}
}

// State is a snapshot of the controller.
type State struct {
	Page    Page
	Overlay Overlay
	// LoginRole is the role the login overlay authenticates as. Only
	// meaningful while Overlay is OverlayLogin.
	LoginRole models.Role
	// Role is the authenticated role, "" when logged out.
	Role models.Role
}

// Controller is the single owner of navigation state. Every transition keeps
// at most one page and one overlay active.
type Controller struct {
	mu    sync.RWMutex
	state State
}

// NewController starts at (home, none).
func NewController() *Controller {
	return &Controller{state: State{Page: PageHome, Overlay: OverlayNone}}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Navigate shows page and closes any overlay.
func (c *Controller) Navigate(page Page) {
	c.mu.Lock()
	c.state.Page = page
	c.closeLocked()
	c.mu.Unlock()
}

// OpenLogin shows the login overlay for role on top of the home page.
func (c *Controller) OpenLogin(role models.Role) {
	c.mu.Lock()
	c.closeLocked()
	c.state.Page = PageHome
	c.state.Overlay = OverlayLogin
	c.state.LoginRole = role
	c.mu.Unlock()
}

// OpenSignup shows the signup overlay for role on top of the home page.
func (c *Controller) OpenSignup(role models.Role) {
	c.mu.Lock()
	c.closeLocked()
	c.state.Page = PageHome
	if role == models.RoleDoctor {
		c.state.Overlay = OverlaySignupDoctor
	} else {
		c.state.Overlay = OverlaySignupUser
	}
	c.mu.Unlock()
}

// CloseOverlay closes any overlay and leaves the page unchanged.
func (c *Controller) CloseOverlay() {
	c.mu.Lock()
	c.closeLocked()
	c.mu.Unlock()
}

// OnAuthSuccess records the new role, closes the overlay and returns home.
func (c *Controller) OnAuthSuccess(sess *models.Session) {
	c.mu.Lock()
	if sess != nil {
		c.state.Role = sess.Role
	}
	c.closeLocked()
	c.state.Page = PageHome
	c.mu.Unlock()
}

// OnLogout forgets the role and returns home.
func (c *Controller) OnLogout() {
	c.mu.Lock()
	c.state.Role = ""
	c.closeLocked()
	c.state.Page = PageHome
	c.mu.Unlock()
}

func (c *Controller) closeLocked() {
	c.state.Overlay = OverlayNone
	c.state.LoginRole = ""
}

// Reachable reports whether the current role may select page.
func (c *Controller) Reachable(page Page) bool {
	for _, p := range ReachablePages(c.Snapshot().Role) {
		if p == page {
			return true
		}
	}
	return false
}

// CanOpenAuth reports whether login/signup overlays are offered, which is
// only the case while logged out.
func (c *Controller) CanOpenAuth() bool {
	return c.Snapshot().Role == ""
}

// ReachablePages is the navigation menu for role, in display order.
//
//	logged out: home, search
//	user:       home, search, doctors, appointment
//	doctor:     home, search, appointment
func ReachablePages(role models.Role) []Page {
	pages := []Page{PageHome, PageSearch}
	switch role {
	case models.RoleUser:
		pages = append(pages, PageDoctors, PageAppointment)
	case models.RoleDoctor:
		pages = append(pages, PageAppointment)
	}
	return pages
}
