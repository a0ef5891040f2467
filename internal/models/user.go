package models

type UserKind string

const (
	UserKindFreelance UserKind = "freelance"
	UserKindCompany   UserKind = "company"
)

// UserSummary is the display info attached to messages and conversations.
// Firstname/lastname/photo are set for freelances, company name/logo for
// companies.
type UserSummary struct {
	ID          string   `json:"id"`
	Kind        UserKind `json:"role"`
	FirstName   string   `json:"firstname,omitempty"`
	LastName    string   `json:"lastname,omitempty"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	CompanyName string   `json:"company_name,omitempty"`
	LogoURL     string   `json:"logo_url,omitempty"`
}
