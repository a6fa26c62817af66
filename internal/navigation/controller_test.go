package navigation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-client/internal/models"
)

func TestController_InitialState(t *testing.T) {
	c := NewController()
	assert.Equal(t, State{Page: PageHome, Overlay: OverlayNone}, c.Snapshot())
	assert.True(t, c.CanOpenAuth())
}

func TestController_NavigateClearsOverlay(t *testing.T) {
	c := NewController()
	c.OpenLogin(models.RoleDoctor)
	require.Equal(t, OverlayLogin, c.Snapshot().Overlay)
	require.Equal(t, models.RoleDoctor, c.Snapshot().LoginRole)

	c.Navigate(PageSearch)
	s := c.Snapshot()
	assert.Equal(t, PageSearch, s.Page)
	assert.Equal(t, OverlayNone, s.Overlay)
	assert.Equal(t, models.Role(""), s.LoginRole)
}

func TestController_OpenOverlayForcesHomeAndReplaces(t *testing.T) {
	c := NewController()
	c.Navigate(PageSearch)

	c.OpenSignup(models.RoleDoctor)
	assert.Equal(t, State{Page: PageHome, Overlay: OverlaySignupDoctor}, c.Snapshot())

	c.OpenLogin(models.RoleUser)
	assert.Equal(t, State{Page: PageHome, Overlay: OverlayLogin, LoginRole: models.RoleUser}, c.Snapshot())

	c.OpenSignup(models.RoleUser)
	assert.Equal(t, State{Page: PageHome, Overlay: OverlaySignupUser}, c.Snapshot())
}

func TestController_CloseOverlayKeepsPage(t *testing.T) {
	c := NewController()
	c.OpenLogin(models.RoleUser)
	c.CloseOverlay()
	c.CloseOverlay()
	assert.Equal(t, State{Page: PageHome, Overlay: OverlayNone}, c.Snapshot())
}

func TestController_AuthSuccessAndLogout(t *testing.T) {
	c := NewController()
	c.OpenLogin(models.RoleUser)

	c.OnAuthSuccess(&models.Session{ID: "u1", Role: models.RoleUser})
	s := c.Snapshot()
	assert.Equal(t, PageHome, s.Page)
	assert.Equal(t, OverlayNone, s.Overlay)
	assert.Equal(t, models.RoleUser, s.Role)
	assert.False(t, c.CanOpenAuth())
	assert.True(t, c.Reachable(PageDoctors))

	c.Navigate(PageDoctors)
	c.OnLogout()
	s = c.Snapshot()
	assert.Equal(t, PageHome, s.Page)
	assert.Equal(t, models.Role(""), s.Role)
	assert.False(t, c.Reachable(PageDoctors))
}

func TestReachablePages_RoleGating(t *testing.T) {
	assert.Equal(t, []Page{PageHome, PageSearch}, ReachablePages(""))
	assert.Equal(t, []Page{PageHome, PageSearch, PageDoctors, PageAppointment}, ReachablePages(models.RoleUser))
	assert.Equal(t, []Page{PageHome, PageSearch, PageAppointment}, ReachablePages(models.RoleDoctor))

	assert.NotContains(t, ReachablePages(""), PageDoctors)
	assert.NotContains(t, ReachablePages(""), PageAppointment)
	assert.NotContains(t, ReachablePages(models.RoleDoctor), PageDoctors)
}

// Random transition sequences never leave more than one overlay or a stale
// login role behind, and Navigate always ends with no overlay.
func TestController_RandomSequencesKeepExclusivity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pages := []Page{PageHome, PageDoctors, PageAppointment, PageSearch}
	roles := []models.Role{models.RoleUser, models.RoleDoctor}
	c := NewController()

	for i := 0; i < 2000; i++ {
		switch rng.Intn(6) {
		case 0:
			p := pages[rng.Intn(len(pages))]
			c.Navigate(p)
			s := c.Snapshot()
			require.Equal(t, OverlayNone, s.Overlay)
			require.Equal(t, p, s.Page)
		case 1:
			c.OpenLogin(roles[rng.Intn(2)])
			require.Equal(t, PageHome, c.Snapshot().Page)
		case 2:
			c.OpenSignup(roles[rng.Intn(2)])
			require.Equal(t, PageHome, c.Snapshot().Page)
		case 3:
			c.CloseOverlay()
		case 4:
			c.OnAuthSuccess(&models.Session{Role: roles[rng.Intn(2)]})
		case 5:
			c.OnLogout()
		}
		s := c.Snapshot()
		if s.Overlay != OverlayLogin {
			require.Empty(t, s.LoginRole)
		}
		if s.Overlay != OverlayNone {
			require.Equal(t, PageHome, s.Page, "overlays only open over home")
		}
	}
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage(" Doctors ")
	require.NoError(t, err)
	assert.Equal(t, PageDoctors, p)

	_, err = ParsePage("admin")
	assert.Error(t, err)
}
