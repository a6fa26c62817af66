// Package booking drives the modal that books one appointment with one doctor.
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/notification"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// User-facing messages.
const (
	MessageIncomplete    = "Please fill in your name and select an appointment day."
	MessageSending       = "Sending request..."
	MessageBooked        = "Appointment booked successfully! Confirmation sent."
	MessageLoginRequired = "You must be logged in to book an appointment. Please log in first."
)

var (
	// ErrClosed is returned by operations on a closed flow, including a
	// submit whose response arrived after Close.
	ErrClosed = errors.New("booking flow closed")
	// ErrSuperseded is returned by a submit whose response arrived after a
	// newer submit started. Its result is not applied.
	ErrSuperseded = errors.New("booking response superseded")
)

// Booker creates appointment requests.
type Booker interface {
	CreateAppointmentRequest(ctx context.Context, token, doctorID string, booking gateway.AppointmentBooking) (json.RawMessage, error)
}

// TokenSource yields the credential for authorized calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// State is the submit lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Slot is the fixed time window attached to every request.
type Slot struct {
	From string
	To   string
}

// DefaultSlot is the window the hosted API expects.
func DefaultSlot() Slot {
	return Slot{From: "10:00 AM", To: "12:00 AM"}
}

// Draft is what the patient has entered so far.
type Draft struct {
	PatientName string
	SelectedDay string
}

// Snapshot is a consistent read of a Flow.
type Snapshot struct {
	Doctor  models.Doctor
	Draft   Draft
	State   State
	Message string
	Closed  bool
}

// Flow books an appointment with a single doctor. It is created when the
// patient opens the booking modal and discarded on Close.
type Flow struct {
	mu         sync.Mutex
	doctor     models.Doctor
	days       []string
	draft      Draft
	state      State
	message    string
	generation uint64
	closed     bool

	booker   Booker
	tokens   TokenSource
	slot     Slot
	notifier *notification.Notifier
	logger   *logging.Logger
	metrics  *metrics.GatewayMetrics
}

// Option configures a Flow.
type Option func(*Flow)

// WithSlot overrides the booking time window. Empty fields keep the default.
func WithSlot(s Slot) Option {
	return func(f *Flow) {
		if strings.TrimSpace(s.From) != "" {
			f.slot.From = s.From
		}
		if strings.TrimSpace(s.To) != "" {
			f.slot.To = s.To
		}
	}
}

// WithNotifier routes outcome messages to n.
func WithNotifier(n *notification.Notifier) Option {
	return func(f *Flow) {
		f.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics records booking outcomes.
func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(f *Flow) {
		f.metrics = m
	}
}

// NewFlow opens a booking flow for doctor in the idle state.
func NewFlow(doctor models.Doctor, booker Booker, tokens TokenSource, opts ...Option) *Flow {
	f := &Flow{
		doctor: doctor,
		days:   doctor.AvailableDays(),
		booker: booker,
		tokens: tokens,
		slot:   DefaultSlot(),
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Doctor returns the doctor being booked.
func (f *Flow) Doctor() models.Doctor {
	return f.doctor
}

// Slot returns the time window sent with the request.
func (f *Flow) Slot() Slot {
	return f.slot
}

// AvailableDays lists the days SelectDay accepts.
func (f *Flow) AvailableDays() []string {
	return append([]string(nil), f.days...)
}

// SetPatientName records the patient's name.
func (f *Flow) SetPatientName(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.draft.PatientName = name
	return nil
}

// SelectDay records the appointment day. Only days from AvailableDays are
// accepted.
func (f *Flow) SelectDay(day string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	for _, d := range f.days {
		if d == day {
			f.draft.SelectedDay = d
			return nil
		}
	}
	if len(f.days) == 0 {
		return apperr.Validation("select_day", "No available days listed.")
	}
	return apperr.Validation("select_day", "Select one of: "+strings.Join(f.days, ", ")+".")
}

// Snapshot returns the current draft, state and inline message.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Doctor:  f.doctor,
		Draft:   f.draft,
		State:   f.state,
		Message: f.message,
		Closed:  f.closed,
	}
}

// Submit sends the appointment request.
//
// An incomplete draft leaves the flow idle with an inline message and makes
// no network call. Otherwise the flow moves to loading and then to
// succeeded or failed, and the outcome is also shown on the notifier. A
// newer Submit or a Close makes an in-flight response stale; stale responses
// are dropped and reported as ErrSuperseded or ErrClosed.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if strings.TrimSpace(f.draft.PatientName) == "" || f.draft.SelectedDay == "" {
		f.state = StateIdle
		f.message = MessageIncomplete
		f.mu.Unlock()
		return apperr.Validation("book_appointment", MessageIncomplete)
	}
	f.generation++
	gen := f.generation
	day := f.draft.SelectedDay
	f.state = StateLoading
	f.message = MessageSending
	f.mu.Unlock()

	token, err := f.tokens.Token(ctx)
	if err != nil {
		return f.finish(gen, apperr.AuthPrecondition("book_appointment", MessageLoginRequired, err))
	}

	_, err = f.booker.CreateAppointmentRequest(ctx, token, f.doctor.ID, gateway.AppointmentBooking{
		From:  f.slot.From,
		To:    f.slot.To,
		Days:  day,
		Token: token,
	})
	return f.finish(gen, err)
}

func (f *Flow) finish(gen uint64, err error) error {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		f.logger.Debug("dropping booking response for closed flow", "doctor_id", f.doctor.ID)
		return ErrClosed
	case gen != f.generation:
		f.mu.Unlock()
		f.logger.Debug("dropping superseded booking response", "doctor_id", f.doctor.ID, "generation", gen)
		return ErrSuperseded
	}

	var msg string
	if err != nil {
		msg = "Booking failed: " + apperr.Message(err)
		f.state = StateFailed
	} else {
		msg = MessageBooked
		f.state = StateSucceeded
	}
	f.message = msg
	f.mu.Unlock()

	f.metrics.ObserveFlow("booking", err == nil)
	if f.notifier != nil {
		f.notifier.Show(msg)
	}
	if err != nil {
		f.logger.Warn("booking failed", "doctor_id", f.doctor.ID, "error", err)
		return err
	}
	f.logger.Info("appointment requested", "doctor_id", f.doctor.ID)
	return nil
}

// Close discards the draft. Late responses are ignored. Idempotent.
func (f *Flow) Close() {
	f.mu.Lock()
	f.closed = true
	f.draft = Draft{}
	f.mu.Unlock()
}

// Closed reports whether Close was called.
func (f *Flow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
