package models

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrUnexpectedShape is returned when a list payload is neither a bare array
// nor an object wrapping one.
var ErrUnexpectedShape = errors.New("unexpected payload shape")

// Doctor fallbacks used when a field is absent or mistyped.
const (
	DefaultDoctorText     = "N/A"
	DefaultDoctorImage    = "https://via.placeholder.com/150"
	DefaultDoctorLocation = "Remote/Not Specified"
	DefaultExperience     = 5
)

// Availability is one block of weekly availability.
type Availability struct {
	Days []string `json:"days"`
	From string   `json:"from"`
	To   string   `json:"to"`
}

// Doctor is a directory entry.
type Doctor struct {
	ID              string
	Name            string
	Email           string
	ServiceLine     string
	Education       string
	Specialization  string
	ImageURL        string
	Availability    []Availability
	Verified        bool
	ExperienceYears int
	Location        string
}

// AvailableDays returns the doctor's day names, deduplicated, in first-seen order.
func (d Doctor) AvailableDays() []string {
	seen := make(map[string]struct{})
	days := make([]string, 0, 7)
	for _, block := range d.Availability {
		for _, day := range block.Days {
			if day == "" {
				continue
			}
			if _, ok := seen[day]; ok {
				continue
			}
			seen[day] = struct{}{}
			days = append(days, day)
		}
	}
	return days
}

// NormalizeDoctors maps a doctor list payload to Doctors.
//
// Accepted shapes: a bare array, or an object with a "doctors" array. Any
// other shape yields an empty list and ErrUnexpectedShape. Per-field sources
// and fallbacks:
//
//	ID              _id, id                    -> element index
//	Name            Full_name, name            -> "N/A"
//	Email           email_Address, email       -> "N/A"
//	ServiceLine     Service, service           -> "N/A"
//	Education       Education, education       -> "N/A"
//	Specialization  Specialized, specialized   -> "N/A"
//	ImageURL        image                      -> placeholder image
//	Availability    availability (array)       -> empty
//	Verified        isVerified (bool)          -> true
//	ExperienceYears experienceYears (number)   -> 5
//	Location        city, location             -> "Remote/Not Specified"
func NormalizeDoctors(raw json.RawMessage) ([]Doctor, error) {
	items, err := listItems(raw, "doctors")
	if err != nil {
		return []Doctor{}, err
	}
	doctors := make([]Doctor, 0, len(items))
	for i, item := range items {
		doctors = append(doctors, NormalizeDoctor(asObject(item), i))
	}
	return doctors, nil
}

// NormalizeDoctor maps one doctor object; index is the fallback ID.
func NormalizeDoctor(m map[string]any, index int) Doctor {
	return Doctor{
		ID:              firstString(m, strconv.Itoa(index), "_id", "id"),
		Name:            firstString(m, DefaultDoctorText, "Full_name", "name"),
		Email:           firstString(m, DefaultDoctorText, "email_Address", "email"),
		ServiceLine:     firstString(m, DefaultDoctorText, "Service", "service"),
		Education:       firstString(m, DefaultDoctorText, "Education", "education"),
		Specialization:  firstString(m, DefaultDoctorText, "Specialized", "specialized"),
		ImageURL:        firstString(m, DefaultDoctorImage, "image"),
		Availability:    normalizeAvailability(m["availability"]),
		Verified:        boolOr(m["isVerified"], true),
		ExperienceYears: intOr(m["experienceYears"], DefaultExperience),
		Location:        firstString(m, DefaultDoctorLocation, "city", "location"),
	}
}

func normalizeAvailability(v any) []Availability {
	blocks, ok := v.([]any)
	if !ok {
		return []Availability{}
	}
	out := make([]Availability, 0, len(blocks))
	for _, b := range blocks {
		m, ok := b.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Availability{
			Days: stringList(m["days"]),
			From: firstString(m, "", "from"),
			To:   firstString(m, "", "to"),
		})
	}
	return out
}

// listItems unwraps a bare array or {key:[...]} payload.
func listItems(raw json.RawMessage, keys ...string) ([]any, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Join(ErrUnexpectedShape, err)
	}
	switch v := decoded.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range keys {
			if items, ok := v[key].([]any); ok {
				return items, nil
			}
		}
	}
	return nil, ErrUnexpectedShape
}

func asObject(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// firstString returns the first non-empty string (or number) found under keys.
func firstString(m map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return fallback
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if list == "" {
			return []string{}
		}
		return []string{list}
	default:
		return []string{}
	}
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func intOr(v any, fallback int) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return fallback
}
