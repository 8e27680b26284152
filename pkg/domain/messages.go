package domain

import "strings"

// ErrorPlaceholder is replaced by the upstream error text in failure templates.
const ErrorPlaceholder = "{error}"

// Messages is the catalog of user-facing texts, one per terminal condition.
type Messages struct {
	OutOfScope          string `yaml:"out_of_scope" json:"out_of_scope"`
	TranslationError    string `yaml:"translation_error" json:"translation_error"`
	TranslationFailed   string `yaml:"translation_failed" json:"translation_failed"`
	NoQuery             string `yaml:"no_query" json:"no_query"`
	InvalidQuery        string `yaml:"invalid_query" json:"invalid_query"`
	ExecutionFailed     string `yaml:"execution_failed" json:"execution_failed"`
	NothingToSummarize  string `yaml:"nothing_to_summarize" json:"nothing_to_summarize"`
	SummarizationFailed string `yaml:"summarization_failed" json:"summarization_failed"`
	ExplanationFailed   string `yaml:"explanation_failed" json:"explanation_failed"`
	NewsFailed          string `yaml:"news_failed" json:"news_failed"`
	NewsUnreliable      string `yaml:"news_unreliable" json:"news_unreliable"`
	SummaryFailed       string `yaml:"summary_failed" json:"summary_failed"`
	NoResult            string `yaml:"no_result" json:"no_result"`
}

// DefaultMessages returns the Portuguese catalog served to the surveillance team.
func DefaultMessages() Messages {
	return Messages{
		OutOfScope:          "Pergunta inválida ou fora do escopo permitido. Reformule sua questão sobre SRAG ou saúde pública.",
		TranslationError:    "Erro ao gerar a query SQL: {error}",
		TranslationFailed:   "Erro: Não foi possível gerar uma query SQL válida a partir da pergunta.",
		NoQuery:             "Erro: Nenhuma query SQL foi gerada a partir da pergunta. Reformule sua questão.",
		InvalidQuery:        "Consulta SQL inválida ou não permitida. Apenas SELECTs simples na tabela srag_cases são aceitos.",
		ExecutionFailed:     "Erro ao executar query SQL: {error}",
		NothingToSummarize:  "Não há resultado SQL para resumir.",
		SummarizationFailed: "Erro ao resumir o resultado da consulta: {error}",
		ExplanationFailed:   "Erro ao gerar explicação: {error}",
		NewsFailed:          "Erro ao buscar notícias: {error}",
		NewsUnreliable:      "Não foi possível encontrar notícias confiáveis e recentes sobre SRAG no Brasil no momento.",
		SummaryFailed:       "Erro ao gerar resumo executivo: {error}",
		NoResult:            "No result",
	}
}

// Merge returns m with every empty entry taken from fallback.
func (m Messages) Merge(fallback Messages) Messages {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Messages{
		OutOfScope:          pick(m.OutOfScope, fallback.OutOfScope),
		TranslationError:    pick(m.TranslationError, fallback.TranslationError),
		TranslationFailed:   pick(m.TranslationFailed, fallback.TranslationFailed),
		NoQuery:             pick(m.NoQuery, fallback.NoQuery),
		InvalidQuery:        pick(m.InvalidQuery, fallback.InvalidQuery),
		ExecutionFailed:     pick(m.ExecutionFailed, fallback.ExecutionFailed),
		NothingToSummarize:  pick(m.NothingToSummarize, fallback.NothingToSummarize),
		SummarizationFailed: pick(m.SummarizationFailed, fallback.SummarizationFailed),
		ExplanationFailed:   pick(m.ExplanationFailed, fallback.ExplanationFailed),
		NewsFailed:          pick(m.NewsFailed, fallback.NewsFailed),
		NewsUnreliable:      pick(m.NewsUnreliable, fallback.NewsUnreliable),
		SummaryFailed:       pick(m.SummaryFailed, fallback.SummaryFailed),
		NoResult:            pick(m.NoResult, fallback.NoResult),
	}
}

// Format fills the error placeholder of a failure template.
// Templates without a placeholder get the error appended.
func Format(template string, err error) string {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	if strings.Contains(template, ErrorPlaceholder) {
		return strings.ReplaceAll(template, ErrorPlaceholder, detail)
	}
	if detail == "" {
		return template
	}
	return template + " " + detail
}
