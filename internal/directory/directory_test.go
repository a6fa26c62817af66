package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/booking"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, s.err
}

type rawSource struct {
	raw     json.RawMessage
	err     error
	calls   int
	release chan struct{}
}

func (s *rawSource) ListDoctors(context.Context) (json.RawMessage, error) {
	s.calls++
	if s.release != nil {
		<-s.release
	}
	return s.raw, s.err
}

func newGatewayDirectory(t *testing.T, r chi.Router, tokens booking.TokenSource) *ViewModel {
	t.Helper()
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	client := gateway.NewClient(ts.URL, logging.Discard(), gateway.WithTimeout(2*time.Second))
	return NewViewModel(client, client, tokens, WithLogger(logging.Discard()))
}

const doctorsPayload = `{"doctors":[
	{"_id":"d1","Full_name":"Evelyn Reed","availability":[{"days":["Monday","Friday"],"from":"09:00","to":"12:00"}]},
	{"_id":"d2","name":"Marcus Cole","city":"Boston"},
	{"id":"d3","name":"Sofia Khan","isVerified":false,"experienceYears":12}
]}`

func TestViewModel_RefreshNormalizesList(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/auth/availableDoctors", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doctorsPayload))
	})
	vm := newGatewayDirectory(t, r, staticTokens{token: "tok"})

	doctors := vm.Refresh(context.Background())
	require.Len(t, doctors, 3)
	assert.True(t, vm.Loaded())
	assert.False(t, vm.Unavailable())

	assert.Equal(t, "Evelyn Reed", doctors[0].Name)
	assert.Equal(t, models.DefaultDoctorLocation, doctors[0].Location)
	assert.Equal(t, "Boston", doctors[1].Location)
	assert.Equal(t, models.DefaultDoctorText, doctors[1].Education)
	assert.Equal(t, "d3", doctors[2].ID)
	assert.False(t, doctors[2].Verified)
	assert.Equal(t, 12, doctors[2].ExperienceYears)
}

// Unreachable or failing API: empty list, error flag, no panic.
func TestViewModel_RefreshFailsSoft(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/auth/availableDoctors", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	vm := newGatewayDirectory(t, r, staticTokens{token: "tok"})

	var doctors []models.Doctor
	require.NotPanics(t, func() { doctors = vm.Refresh(context.Background()) })
	assert.NotNil(t, doctors)
	assert.Empty(t, doctors)
	assert.True(t, vm.Unavailable())
	assert.True(t, apperr.Is(vm.Err(), apperr.KindTransport))
}

func TestViewModel_RefreshUnexpectedShapeIsNotUserVisible(t *testing.T) {
	for name, raw := range map[string]string{
		"object without doctors": `{"items":[{"name":"x"}]}`,
		"scalar":                 `42`,
		"null":                   `null`,
	} {
		t.Run(name, func(t *testing.T) {
			vm := NewViewModel(&rawSource{raw: json.RawMessage(raw)}, nil, staticTokens{}, WithLogger(logging.Discard()))
			doctors := vm.Refresh(context.Background())
			assert.Empty(t, doctors)
			assert.False(t, vm.Unavailable())
			assert.True(t, apperr.Is(vm.Err(), apperr.KindShape))
		})
	}
}

func TestViewModel_RefreshMalformedJSON(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/auth/availableDoctors", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"doctors":[`))
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	reg := prometheus.NewRegistry()
	m := metrics.NewGatewayMetrics(reg)
	client := gateway.NewClient(ts.URL, logging.Discard())
	vm := NewViewModel(client, client, staticTokens{}, WithLogger(logging.Discard()), WithMetrics(m))

	var doctors []models.Doctor
	require.NotPanics(t, func() { doctors = vm.Refresh(context.Background()) })
	assert.Empty(t, doctors)
	assert.True(t, vm.Loaded())
	require.Error(t, vm.Err())
	assert.True(t, apperr.Is(vm.Err(), apperr.KindShape))
	assert.ErrorIs(t, vm.Err(), gateway.ErrMalformedResponse)
	assert.False(t, vm.Unavailable())

	assert.Equal(t, 1.0, flowCount(t, reg, "list_doctors", "failed"))
	assert.Zero(t, flowCount(t, reg, "list_doctors", "succeeded"))
}

func TestViewModel_WrongShapeCountsAsFailedRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	vm := NewViewModel(&rawSource{raw: json.RawMessage(`{"items":[]}`)}, nil, staticTokens{},
		WithLogger(logging.Discard()), WithMetrics(metrics.NewGatewayMetrics(reg)))

	vm.Refresh(context.Background())
	assert.Equal(t, 1.0, flowCount(t, reg, "list_doctors", "failed"))
	assert.Zero(t, flowCount(t, reg, "list_doctors", "succeeded"))
}

func flowCount(t *testing.T, reg *prometheus.Registry, flow, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "healthcare_flow_outcomes_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["flow"] == flow && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestViewModel_RecoveryClearsErrorFlag(t *testing.T) {
	src := &rawSource{err: apperr.Transport("list_doctors", "down", nil)}
	vm := NewViewModel(src, nil, staticTokens{}, WithLogger(logging.Discard()))

	vm.Refresh(context.Background())
	require.True(t, vm.Unavailable())

	src.err = nil
	src.raw = json.RawMessage(`[{"_id":"d1","name":"A"}]`)
	assert.Len(t, vm.Refresh(context.Background()), 1)
	assert.False(t, vm.Unavailable())
}

func TestViewModel_CloseDropsLateRefresh(t *testing.T) {
	src := &rawSource{raw: json.RawMessage(`[{"_id":"d1","name":"A"}]`), release: make(chan struct{})}
	vm := NewViewModel(src, nil, staticTokens{}, WithLogger(logging.Discard()))

	done := make(chan []models.Doctor, 1)
	go func() { done <- vm.Refresh(context.Background()) }()
	vm.Close()
	close(src.release)

	assert.Empty(t, <-done)
	assert.Empty(t, vm.Doctors())
	assert.False(t, vm.Loaded())
}

func TestFilterDoctors(t *testing.T) {
	list := []models.Doctor{
		{ID: "1", Name: "Evelyn Reed"},
		{ID: "2", Name: "Marcus Cole"},
		{ID: "3", Name: "Amelia Jones"},
	}

	assert.Equal(t, list, FilterDoctors(list, ""))
	assert.Equal(t, []models.Doctor{list[0], list[2]}, FilterDoctors(list, "E"))
	assert.Equal(t, []models.Doctor{list[1]}, FilterDoctors(list, "COLE"))
	assert.Empty(t, FilterDoctors(list, "zzz"))

	once := FilterDoctors(list, "e")
	assert.Equal(t, once, FilterDoctors(once, "e"), "filtering is idempotent")
	for _, d := range FilterDoctors(list, "re") {
		assert.Contains(t, list, d, "result is a subset")
	}
}

func TestViewModel_FilterUsesFetchedList(t *testing.T) {
	vm := NewViewModel(&rawSource{raw: json.RawMessage(doctorsPayload)}, nil, staticTokens{}, WithLogger(logging.Discard()))
	vm.Refresh(context.Background())

	got := vm.Filter("khan")
	require.Len(t, got, 1)
	assert.Equal(t, "Sofia Khan", got[0].Name)
}

// A logged-out patient cannot open the booking flow; no request is sent.
func TestViewModel_OpenBookingRequiresToken(t *testing.T) {
	var bookingCalls int
	r := chi.NewRouter()
	r.Get("/api/auth/availableDoctors", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(doctorsPayload))
	})
	r.Post("/api/auth/appointmentrequest", func(w http.ResponseWriter, _ *http.Request) {
		bookingCalls++
	})
	vm := newGatewayDirectory(t, r, staticTokens{err: gateway.ErrMissingCredential})
	vm.Refresh(context.Background())

	flow, err := vm.OpenBooking(context.Background(), "d1")
	require.Error(t, err)
	assert.Nil(t, flow)
	assert.True(t, apperr.Is(err, apperr.KindAuthPrecondition))
	assert.Equal(t, booking.MessageLoginRequired, apperr.Message(err))
	assert.Nil(t, vm.ActiveBooking())
	assert.Zero(t, bookingCalls)
}

func TestViewModel_OpenBookingAndSubmit(t *testing.T) {
	var got gateway.AppointmentBooking
	var gotDoctor, gotAuth string
	r := chi.NewRouter()
	r.Get("/api/auth/availableDoctors", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(doctorsPayload))
	})
	r.Post("/api/auth/appointmentrequest", func(w http.ResponseWriter, req *http.Request) {
		gotDoctor = req.URL.Query().Get("doctorId")
		gotAuth = req.Header.Get("Authorization")
		_ = json.NewDecoder(req.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created"}`))
	})
	vm := newGatewayDirectory(t, r, staticTokens{token: "tok-7"})
	vm.Refresh(context.Background())

	flow, err := vm.OpenBooking(context.Background(), "d1")
	require.NoError(t, err)
	assert.Same(t, flow, vm.ActiveBooking())
	assert.Equal(t, []string{"Monday", "Friday"}, flow.AvailableDays())

	require.NoError(t, flow.SetPatientName("Pat"))
	require.NoError(t, flow.SelectDay("Friday"))
	require.NoError(t, flow.Submit(context.Background()))

	assert.Equal(t, "d1", gotDoctor)
	assert.Equal(t, "Bearer tok-7", gotAuth)
	assert.Equal(t, gateway.AppointmentBooking{From: "10:00 AM", To: "12:00 AM", Days: "Friday", Token: "tok-7"}, got)
	assert.Equal(t, booking.StateSucceeded, flow.Snapshot().State)

	second, err := vm.OpenBooking(context.Background(), "d2")
	require.NoError(t, err)
	assert.True(t, flow.Closed(), "opening another flow closes the previous one")

	vm.Close()
	assert.True(t, second.Closed())
	assert.Nil(t, vm.ActiveBooking())
}

func TestViewModel_OpenBookingUnknownDoctor(t *testing.T) {
	vm := NewViewModel(&rawSource{raw: json.RawMessage(`[]`)}, nil, staticTokens{token: "tok"}, WithLogger(logging.Discard()))
	vm.Refresh(context.Background())

	_, err := vm.OpenBooking(context.Background(), "nope")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestWeekSchedule(t *testing.T) {
	doc := models.Doctor{Availability: []models.Availability{
		{Days: []string{"Monday", "wednesday"}},
		{Days: []string{"Sun", "Monday"}},
	}}
	got := WeekSchedule(doc)
	require.Len(t, got, 7)

	available := map[string]bool{}
	for _, slot := range got {
		available[slot.Day] = slot.Available
	}
	assert.Equal(t, map[string]bool{
		"Mon": true, "Tue": false, "Wed": true, "Thu": false,
		"Fri": false, "Sat": false, "Sun": true,
	}, available)
	assert.Equal(t, "Mon", got[0].Day)
}
