package content

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"github.com/afresh/afresh-web/internal/email"
	"github.com/afresh/afresh-web/internal/gateway"
	"github.com/afresh/afresh-web/internal/model"
)

const teamCacheKey = "teams"

type Service struct {
	content *Content
	client  *gateway.Client
	cache   *cache.Cache
	md      goldmark.Markdown
}

// NewService serves c. Team lists fetched through client are cached for
// teamTTL.
func NewService(c *Content, client *gateway.Client, teamTTL time.Duration) *Service {
	if teamTTL <= 0 {
		teamTTL = 5 * time.Minute
	}
	return &Service{
		content: c,
		client:  client,
		cache:   cache.New(teamTTL, 2*teamTTL),
		md:      goldmark.New(),
	}
}

func (s *Service) Content() *Content {
	return s.content
}

// Markdown renders src to HTML. Raw HTML in src is omitted by goldmark.
func (s *Service) Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		log.Warn().Err(err).Msg("failed to render markdown")
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// Team returns the team from the backend, falling back to the configured
// list when the backend fails or has nobody to show.
func (s *Service) Team(ctx context.Context) []model.TeamMember {
	if v, ok := s.cache.Get(teamCacheKey); ok {
		return v.([]model.TeamMember)
	}
	if s.client == nil {
		return s.content.Team
	}

	dtos, err := s.client.FetchTeams(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("using fallback team list")
		return s.content.Team
	}

	members := make([]model.TeamMember, 0, len(dtos))
	for _, dto := range dtos {
		m := model.TeamMemberFromDTO(dto)
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		m.Featured = m.Name == s.content.About.CEO.Name
		members = append(members, m)
	}
	if len(members) == 0 {
		return s.content.Team
	}
	s.cache.Set(teamCacheKey, members, cache.DefaultExpiration)
	return members
}

// Contact returns the inbox message at index.
func (s *Service) Contact(index int) (model.ContactSubmission, bool) {
	if index < 0 || index >= len(s.content.Contacts) {
		return model.ContactSubmission{}, false
	}
	return s.content.Contacts[index], true
}

// ReplyDefaults prefills the "Reply via Email" form for c.
func ReplyDefaults(c model.ContactSubmission) email.Form {
	return email.Form{
		To:         c.Email,
		ClientName: c.Name,
		Subject:    "Re: " + c.Subject,
	}
}
