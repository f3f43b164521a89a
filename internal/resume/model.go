package resume

// StructuredResume is the canonical, validated resume shape rendered on
// portal pages and stored in decks.formatted_resume.
type StructuredResume struct {
	FullName   string       `json:"full_name"`
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
}

// Experience is one role held at one company.
type Experience struct {
	Company string   `json:"company"`
	Role    string   `json:"role"`
	Dates   string   `json:"dates"`
	Bullets []string `json:"bullets"`
}

// normalized replaces nil slices with empty ones so the value always
// serializes with arrays.
func (r StructuredResume) normalized() StructuredResume {
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	for i := range r.Experience {
		if r.Experience[i].Bullets == nil {
			r.Experience[i].Bullets = []string{}
		}
	}
	return r
}
