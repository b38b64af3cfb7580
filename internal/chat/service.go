package chat

import (
	"context"
	"errors"
	"strings"

	"healthmate-backend/internal/embedding"
	"healthmate-backend/internal/healthdata"
	"healthmate-backend/internal/llm"
	"healthmate-backend/internal/sections"
	"healthmate-backend/internal/shared/metrics"
	"healthmate-backend/internal/shared/telemetry"
)

// ContextState reports how document retrieval went for a chat turn.
type ContextState string

const (
	// ContextResolved means retrieval ran and its results (possibly empty)
	// were injected.
	ContextResolved ContextState = "resolved"

	// ContextDegraded means retrieval failed and the turn proceeded with
	// the no-documents marker instead of failing the request.
	ContextDegraded ContextState = "degraded"
)

// HealthContext is the user's health data injected into the prompt.
type HealthContext struct {
	Profile      healthdata.Profile
	Medications  []healthdata.Medication
	Appointments []healthdata.Appointment
}

// ErrEmptyMessage indicates the chat message was blank.
var ErrEmptyMessage = errors.New("message is required")

// Service orchestrates a retrieval-augmented chat turn.
type Service struct {
	Embedder embedding.Client
	Sections sections.SectionsRepo
	Health   healthdata.HealthRepo
	LLM      llm.Client

	MatchThreshold float64
	MatchLimit     int
	MaxTokens      int
	Temperature    float32
}

// Turn is the resolved input for one completion call.
type Turn struct {
	State      ContextState
	MatchCount int
	Messages   []llm.Message
}

// TurnInput is one chat turn as received from the client. Embedding is an
// optional precomputed query vector; when absent the service embeds the
// message itself.
type TurnInput struct {
	UserID    string
	Message   string
	History   []llm.Message
	Embedding []float32
	Health    *HealthContext
}

// Prepare resolves health context and document context for the message and
// builds the completion messages. Retrieval failures degrade rather than
// abort: the turn proceeds with the no-documents marker.
func (s *Service) Prepare(ctx context.Context, in TurnInput) (Turn, error) {
	userId := in.UserID
	message := in.Message
	if strings.TrimSpace(message) == "" {
		return Turn{}, ErrEmptyMessage
	}

	health := s.resolveHealth(ctx, userId, in.Health)

	state := ContextResolved
	injected := NoDocumentsMarker
	matchCount := 0

	queryVec := in.Embedding
	var err error
	if len(queryVec) == 0 {
		queryVec, err = s.Embedder.Embed(ctx, message)
	}
	if err != nil {
		state = ContextDegraded
		telemetry.Error("chat.query_embedding_failed", map[string]any{
			"user_id": userId,
			"error":   err.Error(),
		})
	} else {
		matches, err := s.Sections.Match(ctx, queryVec, s.MatchThreshold, s.MatchLimit)
		if err != nil {
			state = ContextDegraded
			telemetry.Error("chat.match_failed", map[string]any{
				"user_id": userId,
				"error":   err.Error(),
			})
		} else if len(matches) > 0 {
			matchCount = len(matches)
			contents := make([]string, 0, len(matches))
			for _, m := range matches {
				contents = append(contents, m.Content)
			}
			injected = strings.Join(contents, "\n\n")
		}
	}

	if state == ContextDegraded {
		metrics.IncChatDegraded()
	}

	msgs := make([]llm.Message, 0, len(in.History)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: BuildSystemPrompt(health, injected)})
	msgs = append(msgs, in.History...)
	msgs = append(msgs, llm.Message{Role: "user", Content: message})

	return Turn{State: state, MatchCount: matchCount, Messages: msgs}, nil
}

// Stream runs the completion for a prepared turn, forwarding tokens to
// onToken. A completion failure is terminal.
func (s *Service) Stream(ctx context.Context, turn Turn, onToken func(string) error) error {
	metrics.IncChatRequest()
	return s.LLM.StreamChat(ctx, llm.ChatRequest{
		Messages:    turn.Messages,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	}, onToken)
}

// resolveHealth prefers caller-provided context, then the database, then
// empty values. Health lookups never fail a chat turn.
func (s *Service) resolveHealth(ctx context.Context, userId string, provided *HealthContext) HealthContext {
	if provided != nil {
		return *provided
	}

	var health HealthContext
	if s.Health == nil {
		return health
	}

	profile, err := s.Health.GetProfile(ctx, userId)
	if err == nil {
		health.Profile = profile
	} else if !errors.Is(err, healthdata.ErrNotFound) {
		telemetry.Warn("chat.profile_lookup_failed", map[string]any{
			"user_id": userId,
			"error":   err.Error(),
		})
	}

	if meds, err := s.Health.ListMedications(ctx, userId); err == nil {
		health.Medications = meds
	}
	if apts, err := s.Health.ListAppointments(ctx, userId); err == nil {
		health.Appointments = apts
	}
	return health
}
