// Package gateway contains the REST client for the booking API.
package gateway

// Credentials is the login body for both roles.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserRegistration is the patient signup body. Field names follow the API,
// including its "provience" spelling.
type UserRegistration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	City        string `json:"city"`
	Province    string `json:"provience"`
	Country     string `json:"country"`
	Service     string `json:"service"`
	Date        string `json:"date"`
	ZipCode     *int   `json:"zip_code,omitempty"`
}

// AvailabilityBlock is one weekly availability entry in a doctor signup.
type AvailabilityBlock struct {
	Days []string `json:"days"`
	From string   `json:"from"`
	To   string   `json:"to"`
}

// DoctorRegistration is the doctor signup body.
type DoctorRegistration struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Age          string              `json:"age"`
	Service      string              `json:"service"`
	Education    string              `json:"education"`
	Specialized  string              `json:"specialized"`
	Password     string              `json:"password"`
	Available    bool                `json:"available"`
	Availability []AvailabilityBlock `json:"availability"`
	Image        string              `json:"image"`
}

// AppointmentBooking is the body of an appointment request. The token is
// sent both as bearer and in the body, matching the API.
type AppointmentBooking struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Days  string `json:"days"`
	Token string `json:"token"`
}

type statusUpdate struct {
	Status string `json:"status"`
}
