package dto

import "github.com/guttosm/lookthrough/internal/domain/models"

// ExposureRequest is the body accepted by POST /api/v1/exposure.
type ExposureRequest struct {
	Holdings []models.Holding `json:"holdings" binding:"required"`
	Live     bool             `json:"live" example:"false"`
}

// ExposureResponse is returned by the exposure endpoints.
//
// Exposure is a flat sector -> percent mapping rounded to two decimals.
// Sources reports, per ticker, where the sector data came from.
type ExposureResponse struct {
	Exposure        map[string]float64 `json:"exposure"`
	TotalAllocation float64            `json:"total_allocation" example:"50"`
	Sources         map[string]string  `json:"sources"`
	Summary         string             `json:"summary,omitempty"`
}

// NewExposureResponse maps a report onto the API contract.
func NewExposureResponse(r *models.ExposureReport) ExposureResponse {
	return ExposureResponse{
		Exposure:        r.Exposure,
		TotalAllocation: r.TotalAllocation,
		Sources:         r.Sources,
		Summary:         r.Summary,
	}
}
