package model

// TeamMemberDTO is a team member as returned by GET /api/teams.
type TeamMemberDTO struct {
	ID       *string `json:"id,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

type TeamMember struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Bio      string `yaml:"bio"`
	ImageURL string `yaml:"image_url"`
	Featured bool   `yaml:"featured"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TeamMemberFromDTO fills the display record, leaving absent fields empty.
func TeamMemberFromDTO(d TeamMemberDTO) TeamMember {
	return TeamMember{
		ID:       deref(d.ID),
		Name:     deref(d.Name),
		Role:     deref(d.Role),
		Bio:      deref(d.Bio),
		ImageURL: deref(d.ImageURL),
	}
}
