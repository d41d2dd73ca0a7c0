package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/internal/provider"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Service composes proactive opening messages on top of the catalog.
type Service struct {
	catalog *Catalog
	log     zerolog.Logger
}

func NewService(catalog *Catalog) *Service {
	return &Service{
		catalog: catalog,
		log:     logging.Component("persona"),
	}
}

// Catalog exposes the underlying catalog for listing endpoints.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// ProactiveMessage resolves the persona, applies the per-call override
// and the optional audience profile, and asks the provider for a short
// opening line with no history. An unknown target profile is ignored;
// an unknown persona is a NotFoundError.
func (s *Service) ProactiveMessage(ctx context.Context, prov provider.Provider, req *types.ProactiveRequest) (string, error) {
	p, ok := s.catalog.Persona(req.PersonaID)
	if !ok {
		return "", &NotFoundError{ID: req.PersonaID}
	}

	// The override mutates a copy; the catalog entry stays untouched.
	if o := req.PersonaOverride; o != nil {
		if o.Description != "" {
			p.Description = o.Description
		}
		if o.SystemPrompt != "" {
			p.SystemPrompt = o.SystemPrompt
		}
	}

	var profile *TargetProfile
	if req.TargetProfileID != "" {
		if tp, found := s.catalog.TargetProfile(req.TargetProfileID); found {
			profile = &tp
		} else {
			s.log.Warn().Str("target_profile", req.TargetProfileID).Msg("unknown target profile, ignoring")
		}
	}

	prompt := buildProactivePrompt(p, profile)
	s.log.Debug().Str("persona", p.ID).Int("prompt_length", len(prompt)).Msg("generating proactive message")

	reply, err := prov.Generate(ctx, &provider.GenerateRequest{
		Prompt:        prompt,
		ModelOverride: req.ModelOverride,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// buildProactivePrompt renders the single-shot instruction: act as the
// persona, optionally tailor to the audience, produce a short opener.
func buildProactivePrompt(p Persona, profile *TargetProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Atue com a seguinte persona:\n%s\n\n", p.SystemPrompt)
	if profile != nil {
		fmt.Fprintf(&b, "Contexto sobre o usuário alvo:\n%s\n\n", profile.Context)
	}
	b.WriteString("Gere uma mensagem curta (máximo 2 frases) para iniciar uma conversa com o usuário proativamente. " +
		"Não use 'Olá' ou 'Oi' genéricos, vá direto ao ponto no seu estilo.")
	return b.String()
}
