package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wolfman30/healthcare-client/internal/apperr"
	"github.com/wolfman30/healthcare-client/internal/gateway"
	"github.com/wolfman30/healthcare-client/internal/models"
)

// SignupForm is a registration form for one role.
type SignupForm interface {
	Role() models.Role
	ContactEmail() string
	Validate() error
	submit(ctx context.Context, auth Authenticator) (json.RawMessage, error)
}

// UserSignup holds the patient registration fields.
type UserSignup struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	City        string
	Province    string
	Country     string
	Service     string
	Date        string // YYYY-MM-DD, defaults to today in the front end
	ZipCode     string
}

func (f UserSignup) Role() models.Role    { return models.RoleUser }
func (f UserSignup) ContactEmail() string { return f.Email }

// Validate requires every field; the zip code must be numeric.
func (f UserSignup) Validate() error {
	required := []struct{ label, value string }{
		{"Full name", f.Name},
		{"Email", f.Email},
		{"Phone number", f.PhoneNumber},
		{"City", f.City},
		{"Province", f.Province},
		{"Country", f.Country},
		{"Service", f.Service},
		{"Registration date", f.Date},
		{"Zip code", f.ZipCode},
		{"Password", f.Password},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return apperr.Validation("signup_user", field.label+" is required.")
		}
	}
	if _, err := strconv.Atoi(strings.TrimSpace(f.ZipCode)); err != nil {
		return apperr.Validation("signup_user", "Zip code must be a number.")
	}
	return nil
}

func (f UserSignup) submit(ctx context.Context, auth Authenticator) (json.RawMessage, error) {
	reg := gateway.UserRegistration{
		Name:        strings.TrimSpace(f.Name),
		Email:       strings.TrimSpace(f.Email),
		Password:    f.Password,
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		City:        strings.TrimSpace(f.City),
		Province:    strings.TrimSpace(f.Province),
		Country:     strings.TrimSpace(f.Country),
		Service:     strings.TrimSpace(f.Service),
		Date:        strings.TrimSpace(f.Date),
	}
	if zip, err := strconv.Atoi(strings.TrimSpace(f.ZipCode)); err == nil {
		reg.ZipCode = &zip
	}
	return auth.RegisterUser(ctx, reg)
}

// DoctorSignup holds the doctor registration fields.
type DoctorSignup struct {
	Name         string
	Email        string
	Age          string
	Service      string
	Education    string
	Specialized  string
	Password     string
	Available    bool
	Availability []models.Availability
	Image        string
}

func (f DoctorSignup) Role() models.Role    { return models.RoleDoctor }
func (f DoctorSignup) ContactEmail() string { return f.Email }

// Validate requires name, email, password and at least one available day.
func (f DoctorSignup) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return apperr.Validation("signup_doctor", "Name is required.")
	case strings.TrimSpace(f.Email) == "":
		return apperr.Validation("signup_doctor", "Email is required.")
	case f.Password == "":
		return apperr.Validation("signup_doctor", "Password is required.")
	}
	for _, block := range f.Availability {
		if len(block.Days) > 0 {
			return nil
		}
	}
	return apperr.Validation("signup_doctor", "Select at least one available day.")
}

func (f DoctorSignup) submit(ctx context.Context, auth Authenticator) (json.RawMessage, error) {
	blocks := make([]gateway.AvailabilityBlock, 0, len(f.Availability))
	for _, a := range f.Availability {
		blocks = append(blocks, gateway.AvailabilityBlock{Days: a.Days, From: a.From, To: a.To})
	}
	return auth.RegisterDoctor(ctx, gateway.DoctorRegistration{
		Name:         strings.TrimSpace(f.Name),
		Email:        strings.TrimSpace(f.Email),
		Age:          strings.TrimSpace(f.Age),
		Service:      strings.TrimSpace(f.Service),
		Education:    strings.TrimSpace(f.Education),
		Specialized:  strings.TrimSpace(f.Specialized),
		Password:     f.Password,
		Available:    f.Available,
		Availability: blocks,
		Image:        strings.TrimSpace(f.Image),
	})
}
