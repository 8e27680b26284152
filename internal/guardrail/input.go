package guardrail

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/srag/pkg/ports"
)

// Policy decides what the input guard does when the scope classifier cannot answer.
type Policy string

const (
	// PolicyPermit accepts the question when the classifier is unavailable.
	PolicyPermit Policy = "permit"
	// PolicyDeny rejects the question when the classifier is unavailable.
	PolicyDeny Policy = "deny"
)

// Reasons reported in a Verdict.
const (
	ReasonEmpty                 = "empty"
	ReasonDenylisted            = "denylisted"
	ReasonOutOfScope            = "out_of_scope"
	ReasonInScope               = "in_scope"
	ReasonClassifierUnavailable = "classifier_unavailable"
)

// DefaultInputDenylist holds tokens that reject a question outright.
// Matching is a case-insensitive substring test.
var DefaultInputDenylist = []string{
	"drop table",
	"delete from",
	"truncate",
	"insert into",
	"update ",
	"hack",
	"senha",
	"password",
	"token",
	"script>",
}

// DefaultAffirmatives are the tokens accepted as a "yes" from the classifier.
var DefaultAffirmatives = []string{"sim", "yes"}

const scopePrompt = "Você é um assistente de validação de escopo e deve responder apenas 'Sim' ou 'Não', sem explicação. " +
	"Sua função é decidir se a pergunta abaixo está estritamente relacionada a: SRAG (Síndrome Respiratória Aguda Grave), epidemiologia, saúde pública, vigilância epidemiológica, dados de casos, mortalidade, hospitalização, vacinação, tendências epidemiológicas, explicações conceituais desses temas, ou notícias sobre SRAG no Brasil. " +
	"Bloqueie perguntas sobre política, economia, esportes, tecnologia, entretenimento, temas genéricos, dúvidas pessoais, ou qualquer assunto fora do contexto epidemiológico de SRAG ou de saúde pública. " +
	"Perguntas conceituais ou de definição sobre termos epidemiológicos (ex: 'O que é taxa de mortalidade?', 'Explique o que é incidência') DEVEM ser aceitas. " +
	"Responda 'Sim' apenas se a pergunta for claramente relevante para os temas acima. Caso contrário, responda 'Não'. " +
	"\n\nExemplos de perguntas válidas:\n" +
	"- Quantos casos de SRAG foram notificados em 2024?\n" +
	"- Qual a taxa de mortalidade por SRAG em crianças?\n" +
	"- Explique o que é SRAG.\n" +
	"- Explique o que é taxa de mortalidade.\n" +
	"- O que significa incidência?\n" +
	"- O que é letalidade?\n" +
	"- Como funciona a notificação de casos de SRAG?\n" +
	"- Quais as tendências de hospitalização por SRAG?\n" +
	"- Quais as últimas notícias sobre SRAG no Brasil?\n" +
	"\nExemplos de perguntas inválidas:\n" +
	"- Qual a cotação do dólar?\n" +
	"- Quem ganhou o jogo de futebol ontem?\n" +
	"- Qual o melhor filme de 2024?\n" +
	"- Como investir em ações?\n" +
	"- O presidente foi reeleito?\n" +
	"- Qual a previsão do tempo para amanhã?\n" +
	"\nPergunta: "

// ScopePrompt returns the classifier instruction for question.
func ScopePrompt(question string) string {
	return scopePrompt + question
}

// Verdict is the outcome of an input check.
type Verdict struct {
	Allowed bool
	Reason  string
}

// InputGuard validates questions before routing.
type InputGuard struct {
	classifier    ports.Generator
	denylist      []string
	affirmatives  []string
	onUnavailable Policy
	logger        *slog.Logger
}

// InputOption configures an InputGuard.
type InputOption func(*InputGuard)

// WithDenylist replaces the dangerous-token list. Tokens match case-insensitively.
func WithDenylist(tokens []string) InputOption {
	return func(g *InputGuard) { g.denylist = tokens }
}

// WithAffirmatives replaces the tokens accepted as a positive classification.
func WithAffirmatives(tokens []string) InputOption {
	return func(g *InputGuard) { g.affirmatives = tokens }
}

// WithClassifierPolicy sets the behavior when the classifier errors.
func WithClassifierPolicy(p Policy) InputOption {
	return func(g *InputGuard) { g.onUnavailable = p }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) InputOption {
	return func(g *InputGuard) { g.logger = logger }
}

// NewInputGuard creates a guard that delegates scope decisions to classifier.
// The default policy is PolicyPermit.
func NewInputGuard(classifier ports.Generator, opts ...InputOption) *InputGuard {
	g := &InputGuard{
		classifier:    classifier,
		denylist:      DefaultInputDenylist,
		affirmatives:  DefaultAffirmatives,
		onUnavailable: PolicyPermit,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return g
}

// IsValid reports whether question may enter the machine.
func (g *InputGuard) IsValid(ctx context.Context, question string) bool {
	return g.Check(ctx, question).Allowed
}

// Check runs the local checks and, if they pass, the scope classifier.
// The classifier is never called for empty or denylisted input.
func (g *InputGuard) Check(ctx context.Context, question string) Verdict {
	if strings.TrimSpace(question) == "" {
		return Verdict{Allowed: false, Reason: ReasonEmpty}
	}
	lower := strings.ToLower(question)
	for _, bad := range g.denylist {
		if strings.Contains(lower, strings.ToLower(bad)) {
			return Verdict{Allowed: false, Reason: ReasonDenylisted}
		}
	}

	if g.classifier == nil {
		return g.unavailable(nil)
	}
	resp, err := g.classifier.Generate(ctx, ScopePrompt(question))
	if err != nil {
		return g.unavailable(err)
	}

	resp = strings.ToLower(strings.TrimSpace(resp))
	g.logger.Debug("scope classifier answered", "response", resp)
	for _, yes := range g.affirmatives {
		if strings.Contains(resp, yes) {
			return Verdict{Allowed: true, Reason: ReasonInScope}
		}
	}
	return Verdict{Allowed: false, Reason: ReasonOutOfScope}
}

func (g *InputGuard) unavailable(err error) Verdict {
	g.logger.Warn("scope classifier unavailable", "policy", g.onUnavailable, "error", err)
	return Verdict{Allowed: g.onUnavailable != PolicyDeny, Reason: ReasonClassifierUnavailable}
}
