package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
)

// Mask replaces every redacted span.
const Mask = "***"

// PhonePattern matches Korean mobile and landline numbers.
const PhonePattern = `0\d{1,2}-?\d{3,4}-?\d{4}`

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks text matching the
// patterns in every dialogue log before it is persisted. Free-text
// utterances are the only slots that can carry arbitrary personal data.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, userID string, s *domain.Session) error {
	// Clone so the engine's in-memory session keeps the original text.
	cloned := s.Clone()
	m.mask(cloned.MessageHistory)
	m.mask(cloned.DestStepHistory)
	m.mask(cloned.DepStepHistory)
	return m.next.Save(ctx, userID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, userID string) (*domain.Session, error) {
	return m.next.Load(ctx, userID)
}

func (m *piiMiddleware) Delete(ctx context.Context, userID string) error {
	return m.next.Delete(ctx, userID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(msgs []domain.Message) {
	for i := range msgs {
		for _, p := range m.patterns {
			msgs[i].Content = p.ReplaceAllString(msgs[i].Content, Mask)
		}
	}
}
