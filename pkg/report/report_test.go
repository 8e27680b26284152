package report_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/internal/testutils"
	"github.com/aretw0/srag/pkg/ports"
	"github.com/aretw0/srag/pkg/report"
)

type sqlStore func(query string) ([]ports.Row, error)

func (f sqlStore) Execute(_ context.Context, q string) ([]ports.Row, error) { return f(q) }

func surveillance(q string) ([]ports.Row, error) {
	switch {
	case strings.Contains(q, "GROUP BY DT_SIN_PRI"):
		return []ports.Row{
			{"data": "2025-02-01", "casos": int64(10)},
			{"data": "2025-02-02", "casos": int64(12)},
			{"data": "2025-03-02", "casos": int64(15)},
		}, nil
	case strings.Contains(q, "EVOLUCAO = '2'"):
		return []ports.Row{{"taxa": 0.125}}, nil
	case strings.Contains(q, "UTI = '1'"):
		return []ports.Row{{"taxa": "0.3"}}, nil
	case strings.Contains(q, "VACINA_COV = '1'"):
		return []ports.Row{{"taxa": nil}}, nil
	case strings.Contains(q, "VACINA = '1'"):
		return []ports.Row{{"taxa": 0.5}}, nil
	}
	return nil, errors.New("unexpected query: " + q)
}

func TestWhereClause(t *testing.T) {
	tests := []struct {
		name    string
		filters report.Filters
		want    string
		wantErr bool
	}{
		{"nil", nil, "", false},
		{"empty", report.Filters{}, "", false},
		{"mixed sorted", report.Filters{"UTI": 1, "CS_SEXO": "1"}, "WHERE CS_SEXO = '1' AND UTI = 1", false},
		{"string and number", report.Filters{"IDADE": 30, "CS_SEXO": "F"}, "WHERE CS_SEXO = 'F' AND IDADE = 30", false},
		{"quote escaped", report.Filters{"ID_MUNICIP": "SANTA BARBARA D'OESTE"}, "WHERE ID_MUNICIP = 'SANTA BARBARA D''OESTE'", false},
		{"injected column", report.Filters{"1=1; DROP": "x"}, "", true},
		{"unsupported value", report.Filters{"UTI": []int{1}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := report.WhereClause(tt.filters)
			if tt.wantErr {
				assert.ErrorIs(t, err, report.ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueries(t *testing.T) {
	q, err := report.DailyCasesQuery(30, report.Filters{"CS_SEXO": "F"})
	require.NoError(t, err)
	assert.Contains(t, q, "INTERVAL '30 days' AND CS_SEXO = 'F' GROUP BY")
	assert.True(t, strings.HasPrefix(q, "SELECT"))

	q, err = report.RateQuery("EVOLUCAO", "2", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT SUM(CASE WHEN EVOLUCAO = '2' THEN 1 ELSE 0 END) * 1.0 / NULLIF(COUNT(*), 0) AS taxa FROM srag_cases", q)
}

func TestCollect(t *testing.T) {
	m, err := report.Collect(context.Background(), sqlStore(surveillance), 30, nil)
	require.NoError(t, err)

	assert.Len(t, m.Daily, 3)
	require.NotNil(t, m.IncreaseRate)
	assert.InDelta(t, 0.5, *m.IncreaseRate, 1e-9)
	assert.InDelta(t, 0.125, *m.Mortality, 1e-9)
	assert.InDelta(t, 0.3, *m.ICU, 1e-9)
	assert.Nil(t, m.CovidVaccination)
	assert.InDelta(t, 0.5, *m.FluVaccination, 1e-9)
}

func TestCollect_Failure(t *testing.T) {
	failing := sqlStore(func(q string) ([]ports.Row, error) {
		if strings.Contains(q, "UTI") {
			return nil, errors.New("relation does not exist")
		}
		return surveillance(q)
	})

	_, err := report.Collect(context.Background(), failing, 30, nil)
	assert.ErrorContains(t, err, "uti rate")
}

func TestCollect_SingleDay(t *testing.T) {
	oneDay := sqlStore(func(q string) ([]ports.Row, error) {
		if strings.Contains(q, "GROUP BY") {
			return []ports.Row{{"data": "2025-03-02", "casos": int64(4)}}, nil
		}
		return surveillance(q)
	})

	m, err := report.Collect(context.Background(), oneDay, 30, nil)
	require.NoError(t, err)
	assert.Nil(t, m.IncreaseRate)
}

func TestParseNews(t *testing.T) {
	assert.Nil(t, report.ParseNews("  "))
	assert.Equal(t, []report.NewsItem{{Title: "texto solto"}}, report.ParseNews("texto solto"))
	assert.Equal(t,
		[]report.NewsItem{{Title: "A", URL: "https://a.br"}, {Title: "B sem link"}},
		report.ParseNews(`[{"title":"A","url":"https://a.br"},"B sem link"]`))
}

func TestPrompt(t *testing.T) {
	half := 0.5
	news := []report.NewsItem{
		{Title: "Um", URL: "https://1.br"}, {Title: "Dois"}, {Title: "Três"}, {Title: "Quatro"},
	}

	p := report.Prompt(report.Metrics{Mortality: &half}, news)

	assert.Contains(t, p, "- Taxa de mortalidade: 50.00%")
	assert.Contains(t, p, "- Taxa de aumento de casos: N/A")
	assert.Contains(t, p, "- Um (https://1.br)")
	assert.Contains(t, p, "- Três")
	assert.NotContains(t, p, "Quatro")
}

func TestSummarizer(t *testing.T) {
	gen := &testutils.Generator{Text: "Resumo: casos em alta."}
	news := &testutils.News{Text: `[{"title":"InfoGripe","url":"https://fiocruz.br"}]`}

	s := report.NewSummarizer(sqlStore(surveillance), news, gen)
	out, err := s.Summarize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Resumo: casos em alta.", out)
	prompt := gen.Prompts()[0]
	assert.Contains(t, prompt, "- InfoGripe (https://fiocruz.br)")
	assert.Contains(t, prompt, "- Taxa de aumento de casos: 50.00%")
}

func TestSummarizer_NewsFailureIsTolerated(t *testing.T) {
	gen := &testutils.Generator{Text: "ok"}
	news := &testutils.News{Err: errors.New("tavily down")}

	_, err := report.NewSummarizer(sqlStore(surveillance), news, gen).Summarize(context.Background())
	require.NoError(t, err)
	assert.Contains(t, gen.Prompts()[0], "Nenhuma notícia disponível")
}

func TestSummarizer_Errors(t *testing.T) {
	_, err := report.NewSummarizer(nil, nil, &testutils.Generator{}).Summarize(context.Background())
	assert.Error(t, err)

	gen := &testutils.Generator{Err: errors.New("quota")}
	_, err = report.NewSummarizer(sqlStore(surveillance), nil, gen).Summarize(context.Background())
	assert.ErrorContains(t, err, "quota")
}
