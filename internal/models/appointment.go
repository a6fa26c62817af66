package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Appointment statuses the client writes. Servers may report others.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCancelled = "cancelled"
)

// Decision is a doctor's answer to a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionCancel  Decision = "cancel"
)

// Status returns the appointment status the decision writes.
func (d Decision) Status() string {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusCancelled
}

// Past is the past-tense label used in notifications.
func (d Decision) Past() string {
	if d == DecisionApprove {
		return "approved"
	}
	return "cancelled"
}

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionCancel
}

// AppointmentRequest is a booking request as seen by the doctor.
type AppointmentRequest struct {
	ID          string
	DoctorID    string
	PatientName string
	Date        string
	Time        string
	Status      string
}

// Pending reports whether the request still awaits a decision. Only pending
// requests expose approve/cancel.
func (a AppointmentRequest) Pending() bool {
	return strings.EqualFold(strings.TrimSpace(a.Status), StatusPending)
}

// NormalizeAppointments maps an appointment list payload.
//
// Accepted shapes: bare array, or an object with an "appointments", "data"
// or "requests" array. Per-field sources and fallbacks:
//
//	ID          _id, id                       -> element index
//	DoctorID    doctorId, doctor              -> ""
//	PatientName patientName, name, patient.name -> "Unknown patient"
//	Date        date, days (string or list)   -> ""
//	Time        time, from                    -> ""
//	Status      status                        -> "pending"
func NormalizeAppointments(raw json.RawMessage) ([]AppointmentRequest, error) {
	items, err := listItems(raw, "appointments", "data", "requests")
	if err != nil {
		return []AppointmentRequest{}, err
	}
	out := make([]AppointmentRequest, 0, len(items))
	for i, item := range items {
		out = append(out, NormalizeAppointment(asObject(item), i))
	}
	return out, nil
}

// NormalizeAppointment maps one appointment object; index is the fallback ID.
func NormalizeAppointment(m map[string]any, index int) AppointmentRequest {
	patient := firstString(m, "", "patientName", "name")
	if patient == "" {
		patient = firstString(asObject(m["patient"]), "Unknown patient", "name")
	}
	date := firstString(m, "", "date")
	if date == "" {
		date = strings.Join(stringList(m["days"]), ", ")
	}
	return AppointmentRequest{
		ID:          firstString(m, strconv.Itoa(index), "_id", "id"),
		DoctorID:    firstString(m, "", "doctorId", "doctor"),
		PatientName: patient,
		Date:        date,
		Time:        firstString(m, "", "time", "from"),
		Status:      firstString(m, StatusPending, "status"),
	}
}
