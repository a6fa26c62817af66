// Package appointments lets a doctor review pending appointment requests and
// approve or cancel them.
package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/notification"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

// MessageLoginRequired is the page error when no credential is available.
const MessageLoginRequired = "You must be logged in to view appointment requests. Please log in first."

// MessageDoctorOnly is the page error for a signed-in account that is not a doctor.
const MessageDoctorOnly = "Only doctors can review appointment requests."

// MessageUnknownDoctor is the page error when the server never sent the doctor's id.
const MessageUnknownDoctor = "Your doctor account could not be identified. Please log in again."

var (
	// ErrClosed is returned once the review page has been left.
	ErrClosed = errors.New("appointment review closed")
	// ErrStale is returned by a Load whose response arrived after a newer Load.
	ErrStale = errors.New("appointment list superseded")
)

// Source is the part of the booking API used by the review page.
type Source interface {
	ListAppointments(ctx context.Context, token, doctorID string) (json.RawMessage, error)
	SetAppointmentStatus(ctx context.Context, token, appointmentID, status string) (json.RawMessage, error)
}

// Identity resolves who is reviewing and with which credential.
type Identity interface {
	Current() (*models.Session, bool)
	Token(ctx context.Context) (string, error)
}

// Review backs the appointment page.
type Review struct {
	mu         sync.Mutex
	items      []models.AppointmentRequest
	pageErr    error
	fallback   bool
	loaded     bool
	generation uint64
	inFlight   map[string]struct{}
	closed     bool

	source        Source
	identity      Identity
	notifier      *notification.Notifier
	logger        *logging.Logger
	metrics       *metrics.GatewayMetrics
	allowFallback bool
}

// Option configures a Review.
type Option func(*Review)

// WithNotifier routes action outcomes to n.
func WithNotifier(n *notification.Notifier) Option {
	return func(r *Review) {
		r.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Review) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records load and action outcomes.
func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(r *Review) {
		r.metrics = m
	}
}

// WithFallback makes a failed load show FallbackRequests instead of an empty list.
func WithFallback(enabled bool) Option {
	return func(r *Review) {
		r.allowFallback = enabled
	}
}

// NewReview creates an empty review page. Call Load to fill it.
func NewReview(source Source, identity Identity, opts ...Option) *Review {
	r := &Review{
		items:    []models.AppointmentRequest{},
		inFlight: make(map[string]struct{}),
		source:   source,
		identity: identity,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the requests addressed to the signed-in doctor.
//
// Without a credential, for a non-doctor session or for a doctor whose id the
// server never sent, the page shows an auth-precondition error and no request
// is sent. A failed fetch shows "Failed to load appointment data"
// and, when fallback is enabled, the fallback list; both the list and the
// error are returned in that case.
func (r *Review) Load(ctx context.Context) ([]models.AppointmentRequest, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.generation++
	gen := r.generation
	r.mu.Unlock()

	token, tokenErr := r.identity.Token(ctx)
	sess, ok := r.identity.Current()
	if tokenErr != nil || !ok {
		if tokenErr == nil {
			tokenErr = errors.New("no signed-in account")
		}
		err := apperr.AuthPrecondition("load_appointments", MessageLoginRequired, tokenErr)
		return r.applyLoad(gen, []models.AppointmentRequest{}, false, err)
	}
	if err := reviewer(sess); err != nil {
		r.logger.Debug("appointment review refused", "role", sess.Role, "error", err)
		return r.applyLoad(gen, []models.AppointmentRequest{}, false, err)
	}

	raw, err := r.source.ListAppointments(ctx, token, sess.ID)
	if err == nil {
		var items []models.AppointmentRequest
		items, err = models.NormalizeAppointments(raw)
		if err != nil {
			err = apperr.Shape("load_appointments", "The server sent an unexpected response.", err)
		} else {
			r.metrics.ObserveFlow("load_appointments", true)
			return r.applyLoad(gen, items, false, nil)
		}
	}

	r.metrics.ObserveFlow("load_appointments", false)
	r.logger.Warn("appointment requests unavailable", "doctor_id", sess.ID, "error", err)
	msg := "Failed to load appointment data: " + strings.TrimSuffix(apperr.Message(err), ".")
	if r.allowFallback {
		msg += ". Displaying fallback appointment requests."
		return r.applyLoad(gen, FallbackRequests(sess.ID), true, pageError(err, msg))
	}
	return r.applyLoad(gen, []models.AppointmentRequest{}, false, pageError(err, msg+"."))
}

// reviewer checks that sess may review appointment requests.
func reviewer(sess *models.Session) error {
	switch {
	case sess.Role != models.RoleDoctor:
		return apperr.AuthPrecondition("review_appointments", MessageDoctorOnly, nil)
	case !sess.HasRemoteID():
		return apperr.AuthPrecondition("review_appointments", MessageUnknownDoctor, nil)
	}
	return nil
}

func (r *Review) applyLoad(gen uint64, items []models.AppointmentRequest, fallback bool, err error) ([]models.AppointmentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return nil, ErrClosed
	case gen != r.generation:
		r.logger.Debug("dropping stale appointment list", "generation", gen)
		return cloneRequests(r.items), ErrStale
	}
	r.items = items
	r.fallback = fallback
	r.pageErr = err
	r.loaded = true
	return cloneRequests(r.items), err
}

func pageError(cause error, msg string) error {
	kind := apperr.KindOf(cause)
	if kind == apperr.KindUnknown {
		kind = apperr.KindTransport
	}
	return &apperr.Error{Kind: kind, Op: "load_appointments", Msg: msg, Err: cause}
}

// Actionable reports whether item may be approved or cancelled.
func Actionable(item models.AppointmentRequest) bool {
	return item.Pending()
}

// Act approves or cancels the pending request id.
//
// On success the request is removed from the list; on failure it stays. The
// outcome is shown on the notifier. Acts on different ids run independently;
// a second act on an id that is still in flight is rejected. Only a doctor
// session may act. While the fallback list is shown, decisions are applied
// locally.
func (r *Review) Act(ctx context.Context, id string, decision models.Decision) error {
	if !decision.Valid() {
		return apperr.Validation("act_appointment", "Choose approve or cancel.")
	}
	sess, ok := r.identity.Current()
	if !ok {
		return r.refuseAct(id, decision, apperr.AuthPrecondition("act_appointment", MessageLoginRequired, errors.New("no signed-in account")))
	}
	if err := reviewer(sess); err != nil {
		return r.refuseAct(id, decision, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	item, found := r.findLocked(id)
	switch {
	case !found:
		r.mu.Unlock()
		return apperr.Validation("act_appointment", "No appointment request with id "+id+".")
	case !Actionable(item):
		r.mu.Unlock()
		return apperr.Validation("act_appointment", "Only pending requests can be approved or cancelled.")
	}
	if _, busy := r.inFlight[id]; busy {
		r.mu.Unlock()
		return apperr.Validation("act_appointment", "This request is already being updated.")
	}
	r.inFlight[id] = struct{}{}
	local := r.fallback
	r.mu.Unlock()

	var err error
	if !local {
		var token string
		token, err = r.identity.Token(ctx)
		if err != nil {
			err = apperr.AuthPrecondition("act_appointment", MessageLoginRequired, err)
		} else {
			_, err = r.source.SetAppointmentStatus(ctx, token, id, decision.Status())
		}
	}
	return r.finishAct(id, decision, err)
}

func (r *Review) refuseAct(id string, decision models.Decision, err error) error {
	r.logger.Warn("appointment action refused", "id", id, "decision", decision, "error", err)
	if r.notifier != nil {
		r.notifier.Show(fmt.Sprintf("Failed to %s appointment: %s", decision, apperr.Message(err)))
	}
	return err
}

func (r *Review) finishAct(id string, decision models.Decision, err error) error {
	r.mu.Lock()
	delete(r.inFlight, id)
	if r.closed {
		r.mu.Unlock()
		r.logger.Debug("dropping appointment action for closed page", "id", id)
		return ErrClosed
	}
	var msg string
	if err != nil {
		msg = fmt.Sprintf("Failed to %s appointment: %s", decision, apperr.Message(err))
	} else {
		msg = fmt.Sprintf("Appointment %s successfully.", decision.Past())
		r.removeLocked(id)
	}
	r.mu.Unlock()

	r.metrics.ObserveFlow("appointment_"+string(decision), err == nil)
	if r.notifier != nil {
		r.notifier.Show(msg)
	}
	if err != nil {
		r.logger.Warn("appointment action failed", "id", id, "decision", decision, "error", err)
		return err
	}
	r.logger.Info("appointment updated", "id", id, "status", decision.Status())
	return nil
}

func (r *Review) findLocked(id string) (models.AppointmentRequest, bool) {
	for _, item := range r.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.AppointmentRequest{}, false
}

func (r *Review) removeLocked(id string) {
	kept := r.items[:0]
	for _, item := range r.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	r.items = kept
}

// Items returns the current list.
func (r *Review) Items() []models.AppointmentRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRequests(r.items)
}

// PageError is the message shown above the list, or "".
func (r *Review) PageError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return apperr.Message(r.pageErr)
}

// Err is the error of the last load, if any.
func (r *Review) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pageErr
}

// ShowingFallback reports whether the list is the fallback dataset.
func (r *Review) ShowingFallback() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallback
}

// Loaded reports whether a Load completed.
func (r *Review) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Close discards the page. Late loads and actions are ignored.
func (r *Review) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func cloneRequests(in []models.AppointmentRequest) []models.AppointmentRequest {
	out := make([]models.AppointmentRequest, len(in))
	copy(out, in)
	return out
}
