package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/srag/pkg/domain"
)

// Route pairs a capability with the keywords that select it.
type Route struct {
	Node     string
	Keywords []string
}

// FallbackNode receives questions that match no route.
// It only succeeds when the caller seeded a generated query.
const FallbackNode = domain.NodeQueryExecution

// DefaultRoutes is evaluated in order; the first route with a matching
// keyword wins. Changing the order changes behavior.
var DefaultRoutes = []Route{
	{
		Node:     domain.NodeExplanation,
		Keywords: []string{"explique", "o que é", "defina", "significa", "explain", "what is", "define", "means"},
	},
	{
		Node: domain.NodeNews,
		Keywords: []string{
			"notícia", "notícias", "jornal", "reportagem", "matéria", "atualização", "mídia",
			"news", "newspaper", "report", "story", "update", "media",
		},
	},
	{
		Node: domain.NodeTranslation,
		Keywords: []string{
			"quantos", "total", "casos", "taxa", "percentual", "mortes", "internados", "ocupação", "vacinação",
			"how many", "cases", "rate", "percentage", "deaths", "hospitalized", "occupancy", "vaccination",
		},
	},
}

// Classify returns the node selected for question and the keyword that
// selected it. The keyword is empty when the fallback applies.
func Classify(question string, routes []Route) (node, keyword string) {
	lower := strings.ToLower(question)
	for _, r := range routes {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Node, kw
			}
		}
	}
	return FallbackNode, ""
}

func (h *handlers) route(ctx context.Context, s domain.State) Outcome {
	question := strings.TrimSpace(s.Question)

	verdict := h.Guard.Check(ctx, question)
	if !verdict.Allowed {
		return Outcome{
			State:    s.WithFinal(h.Messages.OutOfScope),
			Decision: fmt.Sprintf("Pergunta bloqueada por guardrail (%s)", verdict.Reason),
			Failure:  domain.FailureGuardrail,
		}
	}

	node, keyword := Classify(question, h.Routes)
	out := s
	out.NextNode = domain.Text(node)

	if keyword == "" {
		return Outcome{State: out, Decision: "Fallback para " + node}
	}
	return Outcome{State: out, Decision: fmt.Sprintf("Roteado para %s (palavra-chave %q)", node, keyword)}
}
