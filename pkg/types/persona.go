package types

// ProactiveRequest is the body of POST /chat/proactive.
type ProactiveRequest struct {
	PersonaID       string           `json:"persona_id"`
	TargetProfileID string           `json:"target_profile_id,omitempty"`
	PersonaOverride *PersonaOverride `json:"persona_override,omitempty"`
	ModelOverride   string           `json:"model_override,omitempty"`
}

// PersonaOverride replaces persona fields for a single request. Absent
// fields keep the catalog values; SystemPrompt is a full replacement,
// never a merge.
type PersonaOverride struct {
	Description  string `json:"description,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ProactiveResponse is the reply to a proactive turn.
type ProactiveResponse struct {
	Reply    string `json:"reply"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// PersonaInfo is one catalog entry as listed by GET /personas.
type PersonaInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PersonaListResponse is the reply to GET /personas.
type PersonaListResponse struct {
	Personas []PersonaInfo `json:"personas"`
}

// TargetProfileInfo is one audience profile as listed by
// GET /target-profiles.
type TargetProfileInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TargetProfileListResponse is the reply to GET /target-profiles.
type TargetProfileListResponse struct {
	Profiles []TargetProfileInfo `json:"profiles"`
}
