package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/credentials"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

type fakeAuth struct {
	loginRaw  json.RawMessage
	loginErr  error
	signupRaw json.RawMessage
	signupErr error

	calls      int
	lastRole   models.Role
	lastCreds  gateway.Credentials
	lastUser   gateway.UserRegistration
	lastDoctor gateway.DoctorRegistration
}

func (f *fakeAuth) Login(_ context.Context, role models.Role, creds gateway.Credentials) (json.RawMessage, error) {
	f.calls++
	f.lastRole = role
	f.lastCreds = creds
	return f.loginRaw, f.loginErr
}

func (f *fakeAuth) RegisterUser(_ context.Context, reg gateway.UserRegistration) (json.RawMessage, error) {
	f.calls++
	f.lastUser = reg
	return f.signupRaw, f.signupErr
}

func (f *fakeAuth) RegisterDoctor(_ context.Context, reg gateway.DoctorRegistration) (json.RawMessage, error) {
	f.calls++
	f.lastDoctor = reg
	return f.signupRaw, f.signupErr
}

func newStore(auth *fakeAuth) (*Store, *credentials.MemoryStore) {
	creds := credentials.NewMemoryStore()
	return NewStore(auth, creds, logging.Discard(), nil), creds
}

func TestStore_LoginSuccessPersistsToken(t *testing.T) {
	auth := &fakeAuth{loginRaw: json.RawMessage(`{"userId":"u-1","token":"tok-1"}`)}
	store, creds := newStore(auth)
	ctx := context.Background()

	sess, err := store.Login(ctx, models.RoleUser, " pat@example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, &models.Session{ID: "u-1", Role: models.RoleUser, Email: "pat@example.com", Token: "tok-1"}, sess)
	assert.Equal(t, models.RoleUser, auth.lastRole)
	assert.Equal(t, "pat@example.com", auth.lastCreds.Email)

	persisted, err := creds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", persisted)

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, sess, current)
	assert.Equal(t, models.RoleUser, store.Role())

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestStore_LoginValidation(t *testing.T) {
	auth := &fakeAuth{}
	store, _ := newStore(auth)

	_, err := store.Login(context.Background(), models.RoleUser, "", "pw")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = store.Login(context.Background(), models.Role("admin"), "a@b.c", "pw")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Zero(t, auth.calls, "validation failures never reach the API")
}

func TestStore_LoginTransportError(t *testing.T) {
	auth := &fakeAuth{loginErr: apperr.Transport("login_user", "Invalid email or password", nil)}
	store, creds := newStore(auth)

	_, err := store.Login(context.Background(), models.RoleUser, "a@b.c", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", apperr.Message(err))

	_, ok := store.Current()
	assert.False(t, ok)
	assert.False(t, credentials.HasToken(context.Background(), creds))
}

func TestStore_LoginMalformedPayload(t *testing.T) {
	auth := &fakeAuth{loginRaw: json.RawMessage(`["not","an","object"]`)}
	store, _ := newStore(auth)

	_, err := store.Login(context.Background(), models.RoleDoctor, "d@b.c", "pw")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindShape))
	assert.NotEmpty(t, apperr.Message(err))
	_, ok := store.Current()
	assert.False(t, ok)
}

func TestStore_SessionWithoutTokenFailsFast(t *testing.T) {
	auth := &fakeAuth{loginRaw: json.RawMessage(`{"id":"u-2"}`)}
	store, creds := newStore(auth)
	ctx := context.Background()
	require.NoError(t, creds.Save(ctx, "stale-token"))

	sess, err := store.Login(ctx, models.RoleUser, "a@b.c", "pw")
	require.NoError(t, err)
	assert.False(t, sess.HasToken())

	_, err = store.Token(ctx)
	assert.ErrorIs(t, err, ErrMissingCredential, "a stale persisted token must not be used")
	assert.False(t, store.Authorized(ctx))
}

func TestStore_LogoutKeepsPersistedToken(t *testing.T) {
	auth := &fakeAuth{loginRaw: json.RawMessage(`{"id":"u-3","token":"tok-3"}`)}
	store, creds := newStore(auth)
	ctx := context.Background()

	_, err := store.Login(ctx, models.RoleUser, "a@b.c", "pw")
	require.NoError(t, err)

	store.Logout()
	_, ok := store.Current()
	assert.False(t, ok)
	assert.Equal(t, models.Role(""), store.Role())

	persisted, _ := creds.Load(ctx)
	assert.Equal(t, "tok-3", persisted)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-3", token)
}

func TestStore_TokenWithNothingPersisted(t *testing.T) {
	store, _ := newStore(&fakeAuth{})
	_, err := store.Token(context.Background())
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestStore_SignupUser(t *testing.T) {
	auth := &fakeAuth{signupRaw: json.RawMessage(`{"id":"u-9","email":"ann@example.com","token":"tok-9"}`)}
	store, creds := newStore(auth)

	form := UserSignup{
		Name: "Ann", Email: "ann@example.com", Password: "pw", PhoneNumber: "555",
		City: "Toronto", Province: "Ontario", Country: "Canada", Service: "General Patient",
		Date: "2026-10-18", ZipCode: "12345",
	}
	sess, err := store.Signup(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, sess.Role)
	assert.Equal(t, "u-9", sess.ID)
	require.NotNil(t, auth.lastUser.ZipCode)
	assert.Equal(t, 12345, *auth.lastUser.ZipCode)
	assert.Equal(t, "Ontario", auth.lastUser.Province)

	persisted, _ := creds.Load(context.Background())
	assert.Equal(t, "tok-9", persisted)
}

func TestStore_SignupDoctorNestedUser(t *testing.T) {
	auth := &fakeAuth{signupRaw: json.RawMessage(`{"user":{"id":"d-1","email":"doc@example.com"},"token":"tok-d"}`)}
	store, _ := newStore(auth)

	form := DoctorSignup{
		Name: "Dr Who", Email: "doc@example.com", Password: "pw",
		Availability: []models.Availability{{Days: []string{"Monday"}, From: "09:00", To: "17:00"}},
	}
	sess, err := store.Signup(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, &models.Session{ID: "d-1", Role: models.RoleDoctor, Email: "doc@example.com", Token: "tok-d"}, sess)
	assert.Equal(t, []gateway.AvailabilityBlock{{Days: []string{"Monday"}, From: "09:00", To: "17:00"}}, auth.lastDoctor.Availability)
}

func TestStore_SignupValidation(t *testing.T) {
	auth := &fakeAuth{}
	store, _ := newStore(auth)

	_, err := store.Signup(context.Background(), UserSignup{Name: "Ann"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = store.Signup(context.Background(), UserSignup{
		Name: "Ann", Email: "a@b.c", Password: "pw", PhoneNumber: "1", City: "c",
		Province: "p", Country: "c", Service: "s", Date: "2026-01-01", ZipCode: "abc",
	})
	assert.Equal(t, "Zip code must be a number.", apperr.Message(err))

	_, err = store.Signup(context.Background(), DoctorSignup{Name: "D", Email: "d@b.c", Password: "pw"})
	assert.Equal(t, "Select at least one available day.", apperr.Message(err))

	_, err = store.Signup(context.Background(), nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Zero(t, auth.calls)
}
