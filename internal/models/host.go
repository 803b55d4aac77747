package models

// Domain is a hostname registered with the service.
type Domain struct {
	ID               int64  `json:"id"`
	Href             string `json:"href"`
	Domain           string `json:"domain"`
	Description      string `json:"description,omitempty"`
	State            string `json:"state,omitempty"`
	VerificationCode string `json:"verification_code,omitempty"`
}

// Verification is one attempt to prove ownership of domain:port over http or
// https. Its Success flag is fixed when the server creates it.
type Verification struct {
	ID                  int64  `json:"id"`
	Href                string `json:"href"`
	DomainHref          string `json:"domain_href,omitempty"`
	Port                int    `json:"port"`
	SSL                 bool   `json:"ssl"`
	Success             bool   `json:"success"`
	VerificationMessage string `json:"verification_message,omitempty"`
}

// ScanProfile is a named, server-defined scan configuration.
type ScanProfile struct {
	ID   int64  `json:"id"`
	Href string `json:"href"`
	Name string `json:"name"`
}

// EmailNotification is an address that receives scan-completion notices.
type EmailNotification struct {
	ID          int64  `json:"id"`
	Href        string `json:"href"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// User is the account behind the API credentials.
type User struct {
	ID    int64  `json:"id"`
	Href  string `json:"href"`
	Email string `json:"email"`
}
