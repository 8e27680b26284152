package runtime

import (
	"context"
	"errors"
	"strings"

	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/pkg/domain"
)

var errNotConfigured = errors.New("not configured")

const summarizationPrompt = "Você é um assistente de saúde pública. Resuma de forma clara e objetiva, em português, " +
	"o resultado da consulta abaixo sobre casos de SRAG, destacando números relevantes sem inventar dados.\n\nResultado:\n"

const explanationPrompt = "Você é um especialista em epidemiologia. Explique de forma clara, concisa e em português, " +
	"para um público de gestores de saúde, o conceito da pergunta abaixo no contexto de SRAG.\n\nPergunta: "

// SummarizationPrompt embeds a canonical query result.
func SummarizationPrompt(result string) string {
	return summarizationPrompt + result
}

// ExplanationPrompt embeds a conceptual question.
func ExplanationPrompt(question string) string {
	return explanationPrompt + question
}

type handlers struct {
	Services
}

func (h *handlers) translate(ctx context.Context, s domain.State) Outcome {
	if h.Translator == nil {
		return h.fail(s, domain.Format(h.Messages.TranslationError, errNotConfigured), "Tradutor indisponível", domain.FailureUpstream)
	}

	query, err := h.Translator.Translate(ctx, s.Question, h.SchemaHint)
	if err != nil {
		return h.fail(s, domain.Format(h.Messages.TranslationError, err), "Falha ao gerar SQL", domain.FailureUpstream)
	}
	query = strings.TrimSpace(query)
	if query == "" || !guardrail.StartsReadOnly(query) {
		return h.fail(s, h.Messages.TranslationFailed, "SQL gerado não reconhecido", domain.FailureGuardrail)
	}

	out := s
	out.GeneratedQuery = domain.Text(query)
	return Outcome{State: out, Decision: "SQL gerado para query_execution"}
}

func (h *handlers) execute(ctx context.Context, s domain.State) Outcome {
	query, ok := s.Query()
	if !ok || strings.TrimSpace(query) == "" {
		return h.fail(s, h.Messages.NoQuery, "Faltando generated_query no estado", domain.FailureMisrouted)
	}
	if !h.Policy.IsValid(query) {
		return h.fail(s, h.Messages.InvalidQuery, "Query bloqueada por guardrail", domain.FailureGuardrail)
	}
	if h.Store == nil {
		return h.fail(s, domain.Format(h.Messages.ExecutionFailed, errNotConfigured), "Banco indisponível", domain.FailureUpstream)
	}

	rows, err := h.Store.Execute(ctx, query)
	if err != nil {
		return h.fail(s, domain.Format(h.Messages.ExecutionFailed, err), "Erro na execução do SQL", domain.FailureUpstream)
	}

	out := s
	out.QueryResult = domain.Text(RenderRows(rows))
	return Outcome{State: out, Decision: "Resultado SQL encaminhado para summarization"}
}

func (h *handlers) summarize(ctx context.Context, s domain.State) Outcome {
	result, ok := s.Result()
	if !ok || strings.TrimSpace(result) == "" {
		return h.fail(s, h.Messages.NothingToSummarize, "Faltando query_result no estado", domain.FailureMisrouted)
	}
	if h.Generator == nil {
		return h.fail(s, domain.Format(h.Messages.SummarizationFailed, errNotConfigured), "Gerador indisponível", domain.FailureUpstream)
	}

	text, err := h.Generator.Generate(ctx, SummarizationPrompt(result))
	if err != nil {
		return h.fail(s, domain.Format(h.Messages.SummarizationFailed, err), "Falha ao resumir resultado", domain.FailureUpstream)
	}
	return Outcome{State: s.WithFinal(text), Decision: "Resumo do resultado SQL"}
}

func (h *handlers) explain(ctx context.Context, s domain.State) Outcome {
	if h.Generator == nil {
		return h.fail(s, domain.Format(h.Messages.ExplanationFailed, errNotConfigured), "Gerador indisponível", domain.FailureUpstream)
	}

	text, err := h.Generator.Generate(ctx, ExplanationPrompt(s.Question))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response")
	}
	if err != nil {
		return h.fail(s, domain.Format(h.Messages.ExplanationFailed, err), "Falha ao gerar explicação", domain.FailureUpstream)
	}

	out := s.WithFinal(text)
	out.Explanation = domain.Text(text)
	return Outcome{State: out, Decision: "Explicação conceitual"}
}

func (h *handlers) news(ctx context.Context, s domain.State) Outcome {
	if h.News == nil {
		return h.fail(s, domain.Format(h.Messages.NewsFailed, errNotConfigured), "Busca de notícias indisponível", domain.FailureUpstream)
	}

	text, err := h.News.Search(ctx, s.Question)
	if err != nil {
		return h.fail(s, domain.Format(h.Messages.NewsFailed, err), "Falha na busca de notícias", domain.FailureUpstream)
	}
	if !guardrail.IsValidNewsResult(text) {
		return h.fail(s, h.Messages.NewsUnreliable, "Notícias bloqueadas por guardrail", domain.FailureGuardrail)
	}

	out := s.WithFinal(text)
	out.News = domain.Text(text)
	return Outcome{State: out, Decision: "Notícias recentes"}
}

func (h *handlers) summary(ctx context.Context, s domain.State) Outcome {
	if h.Summarizer == nil {
		return h.fail(s, domain.Format(h.Messages.SummaryFailed, errNotConfigured), "Relatório indisponível", domain.FailureUpstream)
	}

	text, err := h.Summarizer.Summarize(ctx)
	if err != nil {
		return h.fail(s, domain.Format(h.Messages.SummaryFailed, err), "Falha no resumo executivo", domain.FailureUpstream)
	}

	out := s.WithFinal(text)
	out.Summary = domain.Text(text)
	return Outcome{State: out, Decision: "Resumo executivo"}
}

func (h *handlers) fail(s domain.State, message, decision string, kind domain.FailureKind) Outcome {
	return Outcome{State: s.WithFinal(message), Decision: decision, Failure: kind}
}
