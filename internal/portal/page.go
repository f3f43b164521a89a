package portal

import "github.com/somacore/roledeck/internal/resume"

const noExperienceText = "No experience data available."

// Page states.
const (
	StateResume  = "resume"
	StateOffline = "offline"
)

// Page is everything a portal template or JSON client needs. Either
// Structured is true and Skills/Experience are set, or RawText carries the
// fallback body.
type Page struct {
	State         string              `json:"state"`
	Handle        string              `json:"handle"`
	DisplayName   string              `json:"displayName"`
	Email         string              `json:"email"`
	CompanyLabel  string              `json:"companyLabel,omitempty"`
	Slug          string              `json:"slug,omitempty"`
	IntroText     string              `json:"introText,omitempty"`
	Structured    bool                `json:"structured"`
	Skills        []string            `json:"skills"`
	Experience    []resume.Experience `json:"experience"`
	RawText       string              `json:"rawText,omitempty"`
	DownloadURL   string              `json:"downloadUrl,omitempty"`
	TrackingEmail string              `json:"trackingEmail,omitempty"`
}
