// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	personalUseCase "github.com/guardianlk/guardian/internal/personal/usecase"
	customValidation "github.com/guardianlk/guardian/internal/validation"
)

// CreatePersonalDetailsRequest contains the subject fields submitted when
// creating a personal-details row, a report witness or a lost-article claimant.
type CreatePersonalDetailsRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth"`
	ContactNumber string `json:"contact_number"`
}

// ToInput converts the request into the use case input type.
func (r *CreatePersonalDetailsRequest) ToInput() personalUseCase.PersonalDetailsInput {
	return personalUseCase.PersonalDetailsInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		DateOfBirth:   r.DateOfBirth,
		ContactNumber: r.ContactNumber,
	}
}

// Validate checks if the create personal details request is valid.
func (r *CreatePersonalDetailsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FirstName, validation.Required, customValidation.NotBlank),
		validation.Field(&r.LastName, validation.Required, customValidation.NotBlank),
		validation.Field(&r.DateOfBirth, validation.Required, customValidation.ISODate),
		validation.Field(&r.ContactNumber, validation.Required, customValidation.ContactNumber),
	)
}
