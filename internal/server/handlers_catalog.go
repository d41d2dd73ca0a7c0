package server

import (
	"net/http"

	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// listPersonas handles GET /personas.
func (s *Server) listPersonas(w http.ResponseWriter, r *http.Request) {
	personas := s.personas.Catalog().Personas()

	out := make([]types.PersonaInfo, len(personas))
	for i, p := range personas {
		out[i] = types.PersonaInfo{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
		}
	}

	writeJSON(w, http.StatusOK, types.PersonaListResponse{Personas: out})
}

// listTargetProfiles handles GET /target-profiles.
func (s *Server) listTargetProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.personas.Catalog().TargetProfiles()

	out := make([]types.TargetProfileInfo, len(profiles))
	for i, tp := range profiles {
		out[i] = types.TargetProfileInfo{
			ID:          tp.ID,
			Name:        tp.Name,
			Description: tp.Description,
		}
	}

	writeJSON(w, http.StatusOK, types.TargetProfileListResponse{Profiles: out})
}
