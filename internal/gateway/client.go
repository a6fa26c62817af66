package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/config"
	"github.com/wolfman30/healthcare-client/internal/models"
	"github.com/wolfman30/healthcare-client/internal/observability/metrics"
	"github.com/wolfman30/healthcare-client/pkg/logging"
)

const defaultTimeout = 15 * time.Second

var gatewayTracer = otel.Tracer("healthcare.internal.gateway")

// ErrMissingCredential is returned before sending a call that needs a bearer
// token when none is available.
var ErrMissingCredential = errors.New("missing credential")

// ErrMalformedResponse is returned when a 2xx body is not valid JSON.
var ErrMalformedResponse = errors.New("malformed response body")

// connectMessage is shown when the API cannot be reached at all.
const connectMessage = "Failed to connect to the booking service."

// APIError is a non-2xx response.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Client wraps the booking API's REST endpoints. It is stateless apart from
// configuration and safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	paths      config.Paths
	logger     *logging.Logger
	metrics    *metrics.GatewayMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithPaths overrides the endpoint layout.
func WithPaths(p config.Paths) Option {
	return func(c *Client) {
		c.paths = p
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.GatewayMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient constructs a booking API client.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		paths:      config.DefaultPaths(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListDoctors returns the raw doctor list payload.
func (c *Client) ListDoctors(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, call{op: "list_doctors", label: "Loading doctors", method: http.MethodGet, path: c.paths.Doctors})
}

// RegisterUser signs up a patient and returns the raw identity payload.
func (c *Client) RegisterUser(ctx context.Context, reg UserRegistration) (json.RawMessage, error) {
	return c.doJSON(ctx, call{op: "register_user", label: "Registration", method: http.MethodPost, path: c.paths.UserSignup, body: reg})
}

// RegisterDoctor signs up a doctor and returns the raw identity payload.
func (c *Client) RegisterDoctor(ctx context.Context, reg DoctorRegistration) (json.RawMessage, error) {
	return c.doJSON(ctx, call{op: "register_doctor", label: "Doctor registration", method: http.MethodPost, path: c.paths.DoctorSignup, body: reg})
}

// Login authenticates against the endpoint for role.
func (c *Client) Login(ctx context.Context, role models.Role, creds Credentials) (json.RawMessage, error) {
	path := c.paths.UserLogin
	if role == models.RoleDoctor {
		path = c.paths.DoctorLogin
	}
	return c.doJSON(ctx, call{
		op:     "login_" + string(role),
		label:  fmt.Sprintf("%s login", role),
		method: http.MethodPost,
		path:   path,
		body:   creds,
	})
}

// CreateAppointmentRequest books an appointment with doctorID.
func (c *Client) CreateAppointmentRequest(ctx context.Context, token, doctorID string, booking AppointmentBooking) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("doctorId", doctorID)
	return c.doJSON(ctx, call{
		op:     "create_appointment",
		label:  "Booking",
		method: http.MethodPost,
		path:   c.paths.AppointmentCreate + "?" + q.Encode(),
		body:   booking,
		token:  token,
		authed: true,
	})
}

// ListAppointments returns the raw appointment requests addressed to doctorID.
func (c *Client) ListAppointments(ctx context.Context, token, doctorID string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("doctorId", doctorID)
	return c.doJSON(ctx, call{
		op:     "list_appointments",
		label:  "Loading appointments",
		method: http.MethodGet,
		path:   c.paths.AppointmentList + "?" + q.Encode(),
		token:  token,
		authed: true,
	})
}

// SetAppointmentStatus writes status ("approved" or "cancelled") for appointmentID.
func (c *Client) SetAppointmentStatus(ctx context.Context, token, appointmentID, status string) (json.RawMessage, error) {
	return c.doJSON(ctx, call{
		op:     "set_appointment_status",
		label:  "Updating appointment",
		method: http.MethodPost,
		path:   fmt.Sprintf(c.paths.AppointmentStatus, url.PathEscape(appointmentID)),
		body:   statusUpdate{Status: status},
		token:  token,
		authed: true,
	})
}

type call struct {
	op     string
	label  string // human prefix for status-derived messages
	method string
	path   string
	body   interface{}
	token  string
	authed bool
}

func (c *Client) doJSON(ctx context.Context, cl call) (_ json.RawMessage, err error) {
	if cl.authed && strings.TrimSpace(cl.token) == "" {
		return nil, apperr.AuthPrecondition(cl.op, "You must be logged in to do that. Please log in first.", ErrMissingCredential)
	}

	requestID := uuid.NewString()
	ctx, span := gatewayTracer.Start(ctx, "gateway."+cl.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("healthcare.request_id", requestID),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.ObserveRequest(cl.op, outcome, time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var bodyReader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			outcome = "encode_error"
			return nil, apperr.Transport(cl.op, "Could not encode the request.", fmt.Errorf("marshal request: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, bodyReader)
	if err != nil {
		outcome = "encode_error"
		return nil, apperr.Transport(cl.op, connectMessage, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.authed {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network_error"
		c.logger.Warn("booking API unreachable", "op", cl.op, "request_id", requestID, "error", err)
		return nil, apperr.Transport(cl.op, connectMessage, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "network_error"
		return nil, apperr.Transport(cl.op, connectMessage, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "http_error"
		apiErr := &APIError{Op: cl.op, StatusCode: resp.StatusCode, Message: serverMessage(respBody)}
		display := apiErr.Message
		if display == "" {
			display = fmt.Sprintf("%s failed with status %d.", cl.label, resp.StatusCode)
		}
		c.logger.Warn("booking API non-2xx response",
			"op", cl.op,
			"status", resp.StatusCode,
			"request_id", requestID,
			"body", truncate(string(respBody), 300),
		)
		return nil, apperr.Transport(cl.op, display, apiErr)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(respBody) {
		outcome = "decode_error"
		c.logger.Warn("booking API returned malformed JSON", "op", cl.op, "request_id", requestID)
		return nil, apperr.Shape(cl.op, "The server sent an unexpected response.", ErrMalformedResponse)
	}
	return json.RawMessage(respBody), nil
}

// serverMessage extracts {"message": ...} or {"error": ...} from an error body.
func serverMessage(body []byte) string {
	var parsed struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if msg := strings.TrimSpace(parsed.Message); msg != "" {
		return msg
	}
	var errText string
	if err := json.Unmarshal(parsed.Error, &errText); err == nil {
		return strings.TrimSpace(errText)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(parsed.Error, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
