// Package directory lists doctors, filters them by name and opens the booking
// flow for one of them.
package directory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/booking"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// UnavailableMessage is shown above the list when the last fetch failed.
const UnavailableMessage = "Failed to fetch live doctor data. Please check the API status."

// DoctorSource fetches the raw doctor list.
type DoctorSource interface {
	ListDoctors(ctx context.Context) (json.RawMessage, error)
}

// ViewModel backs the doctors page. It owns the last fetched list and at most
// one open booking flow.
type ViewModel struct {
	mu         sync.RWMutex
	doctors    []models.Doctor
	err        error
	loaded     bool
	generation uint64
	active     *booking.Flow
	closed     bool

	source      DoctorSource
	booker      booking.Booker
	tokens      booking.TokenSource
	logger      *logging.Logger
	metrics     *metrics.GatewayMetrics
	bookingOpts []booking.Option
}

// Option configures a ViewModel.
type Option func(*ViewModel)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *ViewModel) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithMetrics records refresh outcomes.
func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(v *ViewModel) {
		v.metrics = m
	}
}

// WithBookingOptions are applied to every flow opened by OpenBooking.
func WithBookingOptions(opts ...booking.Option) Option {
	return func(v *ViewModel) {
		v.bookingOpts = append(v.bookingOpts, opts...)
	}
}

// NewViewModel creates an empty directory. Call Refresh to load it.
func NewViewModel(source DoctorSource, booker booking.Booker, tokens booking.TokenSource, opts ...Option) *ViewModel {
	v := &ViewModel{
		doctors: []models.Doctor{},
		source:  source,
		booker:  booker,
		tokens:  tokens,
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Refresh fetches the doctor list and returns it.
//
// Failures never reach the caller: any failure yields an empty list and is
// kept in Err. A transport failure also sets Unavailable; a malformed or
// unexpectedly shaped payload is only logged. A response that arrives after a newer Refresh or after
// Close is dropped and the current list is returned.
func (v *ViewModel) Refresh(ctx context.Context) []models.Doctor {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return []models.Doctor{}
	}
	v.generation++
	gen := v.generation
	v.mu.Unlock()

	doctors, fetchErr := v.fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || gen != v.generation {
		v.logger.Debug("dropping stale doctor list", "generation", gen)
		return cloneDoctors(v.doctors)
	}
	v.doctors = doctors
	v.err = fetchErr
	v.loaded = true
	return cloneDoctors(v.doctors)
}

func (v *ViewModel) fetch(ctx context.Context) ([]models.Doctor, error) {
	raw, err := v.source.ListDoctors(ctx)
	if err != nil {
		v.metrics.ObserveFlow("list_doctors", false)
		if apperr.Is(err, apperr.KindShape) {
			v.logger.Warn("doctor list payload malformed", "error", err)
		} else {
			v.logger.Warn("doctor directory unavailable", "error", err)
		}
		return []models.Doctor{}, err
	}

	doctors, err := models.NormalizeDoctors(raw)
	if err != nil {
		v.metrics.ObserveFlow("list_doctors", false)
		v.logger.Warn("doctor list payload has unexpected shape", "error", err)
		return []models.Doctor{}, apperr.Shape("list_doctors", "The server sent an unexpected doctor list.", err)
	}
	v.metrics.ObserveFlow("list_doctors", true)
	return doctors, nil
}

// Loaded reports whether at least one Refresh completed.
func (v *ViewModel) Loaded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loaded
}

// Err is the failure of the last refresh, if any. Shape failures carry
// apperr.KindShape.
func (v *ViewModel) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Unavailable reports whether the last refresh failed to reach the API.
func (v *ViewModel) Unavailable() bool {
	err := v.Err()
	return err != nil && !apperr.Is(err, apperr.KindShape)
}

// Doctors returns the last fetched list.
func (v *ViewModel) Doctors() []models.Doctor {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneDoctors(v.doctors)
}

// Doctor looks up a doctor by id in the last fetched list.
func (v *ViewModel) Doctor(id string) (models.Doctor, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, d := range v.doctors {
		if d.ID == id {
			return d, true
		}
	}
	return models.Doctor{}, false
}

// Filter returns the doctors whose name contains query.
func (v *ViewModel) Filter(query string) []models.Doctor {
	return FilterDoctors(v.Doctors(), query)
}

// FilterDoctors returns the doctors whose name contains query, ignoring case,
// in list order. An empty query returns the whole list.
func FilterDoctors(doctors []models.Doctor, query string) []models.Doctor {
	q := strings.ToLower(query)
	out := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if q == "" || strings.Contains(strings.ToLower(d.Name), q) {
			out = append(out, d)
		}
	}
	return out
}

// OpenBooking opens the booking flow for doctorID, replacing any flow that is
// already open. It refuses when no credential is available.
func (v *ViewModel) OpenBooking(ctx context.Context, doctorID string) (*booking.Flow, error) {
	if _, err := v.tokens.Token(ctx); err != nil {
		return nil, apperr.AuthPrecondition("open_booking", booking.MessageLoginRequired, err)
	}
	doctor, ok := v.Doctor(doctorID)
	if !ok {
		return nil, apperr.Validation("open_booking", "No doctor with id "+doctorID+" is listed.")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, booking.ErrClosed
	}
	if v.active != nil {
		v.active.Close()
	}
	opts := append([]booking.Option{booking.WithLogger(v.logger), booking.WithMetrics(v.metrics)}, v.bookingOpts...)
	v.active = booking.NewFlow(doctor, v.booker, v.tokens, opts...)
	return v.active, nil
}

// ActiveBooking returns the open booking flow, or nil.
func (v *ViewModel) ActiveBooking() *booking.Flow {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active
}

// CloseBooking closes the open booking flow, if any.
func (v *ViewModel) CloseBooking() {
	v.mu.Lock()
	active := v.active
	v.active = nil
	v.mu.Unlock()
	if active != nil {
		active.Close()
	}
}

// Close discards the view: the open flow is closed and late refreshes are
// ignored.
func (v *ViewModel) Close() {
	v.CloseBooking()
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// Closed reports whether Close was called.
func (v *ViewModel) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

func cloneDoctors(in []models.Doctor) []models.Doctor {
	out := make([]models.Doctor, len(in))
	copy(out, in)
	return out
}
