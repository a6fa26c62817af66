package appointments

import "github.com/wolfman30/healthcare-client/internal/models"

// FallbackRequests is the built-in request list shown when the API cannot be
// reached and fallback is enabled.
func FallbackRequests(doctorID string) []models.AppointmentRequest {
	patients := []struct{ id, name string }{
		{"doc_101", "Evelyn Reed (Request 1)"},
		{"doc_102", "Marcus Cole (Request 2)"},
		{"doc_103", "Sofia Khan (Request 3)"},
		{"doc_104", "James Wu (Request 4)"},
		{"doc_105", "Amelia Jones (Request 5)"},
	}
	out := make([]models.AppointmentRequest, 0, len(patients))
	for _, p := range patients {
		out = append(out, models.AppointmentRequest{
			ID:          p.id,
			DoctorID:    doctorID,
			PatientName: p.name,
			Status:      models.StatusPending,
		})
	}
	return out
}
