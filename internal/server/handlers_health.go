package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DanielPonttes/Chatbot-generico/internal/provider"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// health handles GET /health. Three outcomes: healthy when the provider
// answers its availability probe, degraded when it is configured but
// not responding, unhealthy when it cannot even be constructed.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	prov, err := s.registry.Get()
	if err != nil {
		name := s.cfg.Provider.Name
		model := "unknown"
		message := fmt.Sprintf("Erro ao verificar status: %v", err)

		var cfgErr *provider.ConfigError
		if errors.As(err, &cfgErr) {
			model = s.cfg.ModelFor(s.cfg.Provider.Name)
			message = err.Error()
		}

		writeJSON(w, http.StatusOK, types.HealthResponse{
			Status:            types.StatusUnhealthy,
			Provider:          name,
			Model:             model,
			ProviderAvailable: false,
			Message:           message,
		})
		return
	}

	if !prov.IsAvailable(r.Context()) {
		writeJSON(w, http.StatusOK, types.HealthResponse{
			Status:            types.StatusDegraded,
			Provider:          string(prov.Name()),
			Model:             prov.Model(),
			ProviderAvailable: false,
			Message: fmt.Sprintf("Provider '%s' não está respondendo. "+
				"Verifique se está instalado e rodando.", prov.Name()),
		})
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:            types.StatusHealthy,
		Provider:          string(prov.Name()),
		Model:             prov.Model(),
		ProviderAvailable: true,
	})
}
