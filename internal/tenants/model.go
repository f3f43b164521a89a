package tenants

import "time"

// Tenant is a RoleDeck account. Handle is empty until claimed; once set it
// names the tenant's subdomain and never changes.
type Tenant struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Handle     string    `json:"handle,omitempty"`
	PictureURL string    `json:"pictureUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
