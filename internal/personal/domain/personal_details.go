// Package domain defines the personal-details model: the subject-identifying
// fields captured with incident reports and lost-article claims. The four PII
// columns hold versioned ciphertext at rest; decryption happens at the use
// case boundary, never in this package.
package domain

import "time"

// PersonalDetails represents one subject's identifying fields. A row is
// either free-standing, attached to a report as a witness, or attached to a
// lost article as the claimant.
type PersonalDetails struct {
	// ID is the surrogate row identifier.
	ID int64
	// FirstName, LastName, DateOfBirth and ContactNumber are the protected
	// fields. Encoded as "enc:v1:" ciphertext in storage; plaintext only in
	// decrypted views returned by the use case.
	FirstName     string
	LastName      string
	DateOfBirth   string
	ContactNumber string
	// ReportID attaches the row to an incident report (witness), nil otherwise.
	ReportID *int64
	// LostArticleID attaches the row to a lost-article claim, nil otherwise.
	LostArticleID *int64
	// CreatedAt is the UTC timestamp when the row was created.
	CreatedAt time.Time
}
