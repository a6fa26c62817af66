package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds client configuration
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFile     string
	MetricsAddr string

	// Credential persistence
	TokenStore     string
	TokenFile      string
	TokenKey       string
	RedisAddr      string
	RedisPassword  string
	RedisTLS       bool
	RedisKeyPrefix string

	// Booking
	BookingFrom string
	BookingTo   string

	// Appointment review shows the built-in request list when the API is down.
	AppointmentsFallback bool

	Paths Paths
}

// Paths are the REST endpoints relative to APIBaseURL.
type Paths struct {
	Doctors           string
	UserSignup        string
	DoctorSignup      string
	UserLogin         string
	DoctorLogin       string
	AppointmentCreate string
	AppointmentList   string
	AppointmentStatus string // %s is replaced by the escaped appointment id
}

// DefaultPaths returns the endpoint layout of the hosted booking API.
func DefaultPaths() Paths {
	return Paths{
		Doctors:           "/api/auth/availableDoctors",
		UserSignup:        "/api/auth/signup",
		DoctorSignup:      "/api/doc/signup",
		UserLogin:         "/api/auth/login",
		DoctorLogin:       "/api/doc/login",
		AppointmentCreate: "/api/auth/appointmentrequest",
		AppointmentList:   "/api/auth/appointmentrequest",
		AppointmentStatus: "/api/doc/appointmentrequest/%s/status",
	}
}

// Load reads configuration from environment variables
func Load() *Config {
	defaults := DefaultPaths()
	return &Config{
		APIBaseURL:  getEnv("API_BASE_URL", "https://node-backend-tau-three.vercel.app"),
		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		MetricsAddr: getEnv("METRICS_ADDR", ""),

		TokenStore:     strings.ToLower(strings.TrimSpace(getEnv("TOKEN_STORE", "file"))),
		TokenFile:      getEnv("TOKEN_FILE", defaultTokenFile()),
		TokenKey:       getEnv("TOKEN_KEY", "token"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisTLS:       getEnvAsBool("REDIS_TLS", false),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "healthcare"),

		BookingFrom: getEnv("BOOKING_FROM", "10:00 AM"),
		BookingTo:   getEnv("BOOKING_TO", "12:00 AM"),

		AppointmentsFallback: getEnvAsBool("APPOINTMENTS_FALLBACK", false),

		Paths: Paths{
			Doctors:           getEnv("PATH_DOCTORS", defaults.Doctors),
			UserSignup:        getEnv("PATH_USER_SIGNUP", defaults.UserSignup),
			DoctorSignup:      getEnv("PATH_DOCTOR_SIGNUP", defaults.DoctorSignup),
			UserLogin:         getEnv("PATH_USER_LOGIN", defaults.UserLogin),
			DoctorLogin:       getEnv("PATH_DOCTOR_LOGIN", defaults.DoctorLogin),
			AppointmentCreate: getEnv("PATH_APPOINTMENT_CREATE", defaults.AppointmentCreate),
			AppointmentList:   getEnv("PATH_APPOINTMENT_LIST", defaults.AppointmentList),
			AppointmentStatus: getEnv("PATH_APPOINTMENT_STATUS", defaults.AppointmentStatus),
		},
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".healthcare-token.json"
	}
	return filepath.Join(dir, "healthcare-client", "token.json")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
