// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	personalDomain "github.com/guardianlk/guardian/internal/personal/domain"
)

// PersonalDetailsResponse represents a decrypted personal-details row in API
// responses. Must be transmitted over HTTPS in production.
type PersonalDetailsResponse struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	DateOfBirth   string    `json:"date_of_birth"`
	ContactNumber string    `json:"contact_number"`
	ReportID      *int64    `json:"report_id,omitempty"`
	LostArticleID *int64    `json:"lost_article_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MapPersonalDetailsToResponse converts a decrypted domain row to an API
// response.
func MapPersonalDetailsToResponse(details *personalDomain.PersonalDetails) PersonalDetailsResponse {
	return PersonalDetailsResponse{
		ID:            details.ID,
		FirstName:     details.FirstName,
		LastName:      details.LastName,
		DateOfBirth:   details.DateOfBirth,
		ContactNumber: details.ContactNumber,
		ReportID:      details.ReportID,
		LostArticleID: details.LostArticleID,
		CreatedAt:     details.CreatedAt,
	}
}

// MapPersonalDetailsToListResponse converts a slice of decrypted rows.
func MapPersonalDetailsToListResponse(rows []*personalDomain.PersonalDetails) []PersonalDetailsResponse {
	responses := make([]PersonalDetailsResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, MapPersonalDetailsToResponse(row))
	}
	return responses
}
