// Package sqlgen translates questions into queries over the surveillance
// table with a text generator.
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/pkg/ports"
)

const instructions = "Você é um assistente que converte perguntas em português sobre epidemiologia/SRAG em queries SQL " +
	"para a tabela srag_cases de um banco PostgreSQL.\n" +
	"Utilize apenas as colunas e valores do dicionário de dados abaixo. NÃO use tabelas que não estejam listadas. " +
	"NÃO inclua comandos perigosos.\n" +
	"Responda apenas com a query SQL completa, em uma única linha, sem explicação.\n\n"

// Examples are the few-shot pairs appended to every prompt.
const Examples = `Exemplos:
Pergunta: Quantos casos de SRAG de mulheres em 2024?
Query SQL: SELECT COUNT(*) FROM srag_cases WHERE CS_SEXO='F' AND EXTRACT(YEAR FROM DT_NOTIFIC)=2024;

Pergunta: Quantos casos de SRAG de homens?
Query SQL: SELECT COUNT(*) FROM srag_cases WHERE CS_SEXO='M';

Pergunta: Quantos casos ignorados de sexo?
Query SQL: SELECT COUNT(*) FROM srag_cases WHERE CS_SEXO='I';
`

// Prompt builds the translation instruction.
func Prompt(question, schemaHint string) string {
	var b strings.Builder
	b.WriteString(instructions)
	if schemaHint != "" {
		b.WriteString(schemaHint)
		b.WriteString("\n\n")
	}
	b.WriteString(Examples)
	fmt.Fprintf(&b, "\nPergunta: %s\nQuery SQL:\n", question)
	return b.String()
}

// Extract returns the first line that starts with the read-only keyword, or
// the trimmed response when no line does.
func Extract(response string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if guardrail.StartsReadOnly(line) {
			return line
		}
	}
	return strings.TrimSpace(response)
}

// Translator implements ports.Translator over a Generator.
type Translator struct {
	gen ports.Generator
}

// New creates a Translator.
func New(gen ports.Generator) *Translator {
	return &Translator{gen: gen}
}

// Translate implements ports.Translator.
func (t *Translator) Translate(ctx context.Context, question, schemaHint string) (string, error) {
	resp, err := t.gen.Generate(ctx, Prompt(question, schemaHint))
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	return Extract(resp), nil
}
