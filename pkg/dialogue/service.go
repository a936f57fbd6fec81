package dialogue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/gashu/internal/logging"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/llm"
)

const (
	defaultMaxTokens = 512
)

// Service implements the classifier and the three stage dialogues on top
// of a chat model. It satisfies ports.Classifier, ports.DestDialogue,
// ports.DepDialogue and ports.RouteDialogue.
type Service struct {
	client          llm.Client
	model           string
	classifierModel string
	maxTokens       int
	logger          *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithClassifierModel uses a different model for intent classification.
func WithClassifierModel(model string) Option {
	return func(s *Service) {
		if model != "" {
			s.classifierModel = model
		}
	}
}

// WithMaxTokens caps the length of every reply.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithLogger sets the logger used to report unparseable replies.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service that sends every request to model.
func New(client llm.Client, model string, opts ...Option) *Service {
	s := &Service{
		client:          client,
		model:           model,
		classifierModel: model,
		maxTokens:       defaultMaxTokens,
		logger:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify maps the utterance to a macro-state. Unknown state names are
// reported as the error state.
func (s *Service) Classify(ctx context.Context, history []domain.Message, message string) (domain.Parsed[domain.Classification], error) {
	p, err := ask[domain.Classification](ctx, s, s.classifierModel, systemExtractor, history, classifyPrompt(message))
	if err != nil || !p.OK {
		return p, err
	}
	if p.Value.State != "" {
		state, ok := domain.ParseMacroState(string(p.Value.State))
		if !ok {
			s.logger.Debug("Classifier returned unknown state", "state", p.Value.State)
			state = domain.StateError
		}
		p.Value.State = state
	}
	return p, nil
}

// DestTurn runs one destination selection turn.
func (s *Service) DestTurn(ctx context.Context, history []domain.Message, candidates []domain.Candidate, message string) (domain.Parsed[domain.DestReply], error) {
	return ask[domain.DestReply](ctx, s, s.model, systemExtractor, history, destPrompt(message, compact(candidates)))
}

// DepTurn runs one departure selection turn.
func (s *Service) DepTurn(ctx context.Context, history []domain.Message, candidates []domain.Candidate, message string) (domain.Parsed[domain.DepReply], error) {
	return ask[domain.DepReply](ctx, s, s.model, systemExtractor, history, depPrompt(message, compact(candidates)))
}

// RouteTurn summarises routes or extracts a bus selection.
func (s *Service) RouteTurn(ctx context.Context, history []domain.Message, routes []domain.Itinerary, message string) (domain.Parsed[domain.RouteReply], error) {
	return ask[domain.RouteReply](ctx, s, s.model, systemGuide, history, routePrompt(message, compact(routes)))
}

// ask sends history plus prompt and decodes the reply. Transport failures
// are returned as errors; undecodable replies as a failed Parsed.
func ask[T any](ctx context.Context, s *Service, model, system string, history []domain.Message, prompt string) (domain.Parsed[T], error) {
	msgs := make([]domain.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: prompt})

	resp, err := s.client.Chat(ctx, llm.ChatRequest{
		Model:       model,
		System:      system,
		Messages:    msgs,
		MaxTokens:   s.maxTokens,
		Temperature: llm.Temperature(0),
	})
	if err != nil {
		return domain.Parsed[T]{}, fmt.Errorf("dialogue: %w", err)
	}

	p := llm.Decode[T](resp.Content)
	if !p.OK {
		s.logger.Warn("Unparseable model reply", "model", model, "raw", resp.Content)
	}
	return p, nil
}
