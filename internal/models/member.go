package models

import "time"

// Sport is one of the activities a member can enroll in
type Sport string

const (
	SportRugby        Sport = "Rugby à 7"
	SportSwimming     Sport = "Natation"
	SportFootball     Sport = "Foot à 7"
	SportBoxing       Sport = "Boxe"
	SportCrossCountry Sport = "Cross Athlétisme"
	SportTennis       Sport = "Tennis"
	SportClimbing     Sport = "Escalade"
	SportTableTennis  Sport = "Tennis de table"
)

// Sports lists every activity offered by the club, in display order
var Sports = []Sport{
	SportRugby,
	SportSwimming,
	SportFootball,
	SportBoxing,
	SportCrossCountry,
	SportTennis,
	SportClimbing,
	SportTableTennis,
}

// IsValid reports whether s is one of the offered activities
func (s Sport) IsValid() bool {
	for _, sport := range Sports {
		if s == sport {
			return true
		}
	}
	return false
}

// RegistrationDateLayout matches the ISO timestamps written by the public site
const RegistrationDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Member represents a registered club member
type Member struct {
	ID               string  `json:"id"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	BirthDate        string  `json:"birthDate"`
	Sports           []Sport `json:"sports"`
	RegistrationDate string  `json:"registrationDate"`
}

// RecordID returns the member identifier
func (m Member) RecordID() string {
	return m.ID
}

// MemberInput holds the fields a visitor fills in on the registration form
type MemberInput struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	BirthDate string  `json:"birthDate"`
	Sports    []Sport `json:"sports"`
}

// ToMember builds a Member with the given identity and registration time
func (in MemberInput) ToMember(id string, registeredAt time.Time) Member {
	sports := make([]Sport, len(in.Sports))
	copy(sports, in.Sports)
	return Member{
		ID:               id,
		FirstName:        in.FirstName,
		LastName:         in.LastName,
		Email:            in.Email,
		Phone:            in.Phone,
		BirthDate:        in.BirthDate,
		Sports:           sports,
		RegistrationDate: registeredAt.UTC().Format(RegistrationDateLayout),
	}
}
