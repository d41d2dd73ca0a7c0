// Package persona holds the static catalog of conversation personas and
// target audience profiles used for proactive messages, plus the service
// that composes a single-shot prompt out of them.
//
// The catalog ships with built-in entries and can be extended or
// overridden per id from a YAML file.
package persona

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona is one catalog entry: a named voice with its system prompt.
type Persona struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	SystemPrompt string `yaml:"system_prompt"`
}

// TargetProfile describes the audience a proactive message should
// address. Context is the behavioral instruction text injected into the
// prompt; Description is what listing endpoints show.
type TargetProfile struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Context     string `yaml:"context"`
}

// NotFoundError reports an unknown persona id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Persona '%s' não encontrada.", e.ID)
}

var builtinPersonas = []Persona{
	{
		ID:          "analista",
		Name:        "Analista Financeiro",
		Description: "Focado em dados, investimentos e economia sustentável.",
		SystemPrompt: "Você é um Analista Financeiro sênior. Seu tom é formal, objetivo e baseado em dados. " +
			"Você foca em ROI, economia de longo prazo e estratégias de investimento. " +
			"Ao iniciar uma conversa proativamente, sugira uma análise de gastos ou uma oportunidade de economia.",
	},
	{
		ID:          "coach",
		Name:        "Coach Motivacional",
		Description: "Energético e focado em mudança de hábitos e mindset.",
		SystemPrompt: "Você é um Coach Motivacional financeiro. Seu tom é inspirador, cheio de energia e encorajador. " +
			"Você foca em mudança de mindset, metas alcançáveis e celebração de pequenas vitórias. " +
			"Ao iniciar uma conversa proativamente, mande uma mensagem motivacional para foco financeiro.",
	},
	{
		ID:          "amigo",
		Name:        "Amigo Pragmático",
		Description: "Casual, direto e focado em dicas práticas do dia a dia.",
		SystemPrompt: "Você é aquele amigo que entende de dinheiro mas fala a língua do povo. Seu tom é casual, direto e sem jargões difíceis. " +
			"Você foca em 'hacks' de economia, descontos e dicas rápidas. " +
			"Ao iniciar uma conversa proativamente, mande uma dica rápida ou pergunte se sobrou dinheiro do fim de semana.",
	},
}

var builtinProfiles = []TargetProfile{
	{
		ID:          "endividado",
		Name:        "Usuário Endividado",
		Description: "Pessoa com dívidas ativas buscando reorganização financeira.",
		Context: "O usuário está endividado, provavelmente com o nome negativado, e sente ansiedade ao falar de dinheiro. " +
			"Evite tom de cobrança, priorize renegociação de dívidas, orçamento mínimo e pequenos passos para sair do vermelho.",
	},
	{
		ID:          "investidor-iniciante",
		Name:        "Investidor Iniciante",
		Description: "Já guarda dinheiro e quer começar a investir.",
		Context: "O usuário já tem uma reserva pequena e quer dar os primeiros passos em investimentos. " +
			"Use linguagem simples, explique siglas na primeira vez e sugira produtos conservadores antes de renda variável.",
	},
	{
		ID:          "economizador",
		Name:        "Economizador do Dia a Dia",
		Description: "Quer cortar gastos pequenos e fazer o salário render.",
		Context: "O usuário quer economizar nas despesas do cotidiano: mercado, transporte, assinaturas. " +
			"Prefira dicas práticas e imediatas, com números concretos de quanto dá para economizar por mês.",
	},
}

// Catalog is the read-only persona and profile list, fixed after load.
type Catalog struct {
	personas []Persona
	profiles []TargetProfile
}

// NewCatalog returns a catalog with only the built-in entries.
func NewCatalog() *Catalog {
	c := &Catalog{
		personas: make([]Persona, len(builtinPersonas)),
		profiles: make([]TargetProfile, len(builtinProfiles)),
	}
	copy(c.personas, builtinPersonas)
	copy(c.profiles, builtinProfiles)
	return c
}

// catalogFile is the YAML shape of an external personas file.
type catalogFile struct {
	Personas       []Persona       `yaml:"personas"`
	TargetProfiles []TargetProfile `yaml:"target_profiles"`
}

// LoadCatalog builds the catalog from the built-ins plus an optional
// YAML file. File entries replace built-ins with the same id and append
// otherwise. A missing file is not an error; a malformed one is.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read personas file: %w", err)
	}

	var extra catalogFile
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse personas file %s: %w", path, err)
	}

	for _, p := range extra.Personas {
		c.upsertPersona(p)
	}
	for _, tp := range extra.TargetProfiles {
		c.upsertProfile(tp)
	}
	return c, nil
}

func (c *Catalog) upsertPersona(p Persona) {
	for i := range c.personas {
		if c.personas[i].ID == p.ID {
			c.personas[i] = p
			return
		}
	}
	c.personas = append(c.personas, p)
}

func (c *Catalog) upsertProfile(tp TargetProfile) {
	for i := range c.profiles {
		if c.profiles[i].ID == tp.ID {
			c.profiles[i] = tp
			return
		}
	}
	c.profiles = append(c.profiles, tp)
}

// Personas lists every catalog persona in declaration order.
func (c *Catalog) Personas() []Persona {
	out := make([]Persona, len(c.personas))
	copy(out, c.personas)
	return out
}

// TargetProfiles lists every audience profile in declaration order.
func (c *Catalog) TargetProfiles() []TargetProfile {
	out := make([]TargetProfile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Persona looks an entry up by id.
func (c *Catalog) Persona(id string) (Persona, bool) {
	for _, p := range c.personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// TargetProfile looks a profile up by id.
func (c *Catalog) TargetProfile(id string) (TargetProfile, bool) {
	for _, tp := range c.profiles {
		if tp.ID == id {
			return tp, true
		}
	}
	return TargetProfile{}, false
}
