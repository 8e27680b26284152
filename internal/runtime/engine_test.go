package runtime_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/internal/runtime"
	"github.com/aretw0/srag/internal/testutils"
	"github.com/aretw0/srag/pkg/adapters/memory"
	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
)

const womenQuery = "SELECT COUNT(*) AS total FROM srag_cases WHERE CS_SEXO = 'F' AND EXTRACT(YEAR FROM DT_NOTIFIC) = 2025"

// llm answers the scope classifier with "Sim" and every other prompt with text.
func llm(text string) *testutils.Generator {
	return &testutils.Generator{Reply: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, guardrail.ScopePrompt("")) {
			return "Sim", nil
		}
		return text, nil
	}}
}

type fixture struct {
	gen        *testutils.Generator
	translator *testutils.Translator
	store      *testutils.Store
	news       *testutils.News
	summarizer *testutils.Summarizer
	audit      *memory.AuditLog
}

func newFixture() *fixture {
	return &fixture{
		gen:        llm("Foram notificados 1234 casos de SRAG em mulheres em 2025."),
		translator: &testutils.Translator{Query: womenQuery},
		store:      &testutils.Store{Rows: []ports.Row{{"total": 1234}}},
		news:       &testutils.News{Text: `[{"title":"InfoGripe aponta alta de SRAG","url":"https://agencia.fiocruz.br/infogripe"}]`},
		summarizer: &testutils.Summarizer{Text: "Resumo executivo de SRAG"},
		audit:      memory.NewAuditLog(),
	}
}

func (f *fixture) engine(opts ...runtime.Option) *runtime.Engine {
	opts = append([]runtime.Option{
		runtime.WithAuditSink(f.audit),
		runtime.WithRequestIDs(func() string { return "req-1" }),
	}, opts...)
	return runtime.NewEngine(runtime.Services{
		Generator:  f.gen,
		Translator: f.translator,
		Store:      f.store,
		News:       f.news,
		Summarizer: f.summarizer,
	}, opts...)
}

func (f *fixture) nodes(t *testing.T) []string {
	events, err := f.audit.Events(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Node)
	}
	return out
}

func ask(t *testing.T, e *runtime.Engine, question string) *runtime.Result {
	res, err := e.Run(context.Background(), domain.NewState(question))
	require.NoError(t, err)
	return res
}

func TestEngine_DataQuestion(t *testing.T) {
	f := newFixture()
	res := ask(t, f.engine(), "Quantos casos de SRAG em mulheres em 2025?")

	assert.Equal(t, []string{"router", "translation", "query_execution", "summarization"}, res.Path)
	assert.Equal(t, "Foram notificados 1234 casos de SRAG em mulheres em 2025.", res.Answer("No result"))

	q, _ := res.State.Query()
	assert.Equal(t, womenQuery, q)
	r, _ := res.State.Result()
	assert.Equal(t, `[{"total":1234}]`, r)
	assert.Nil(t, res.State.NextNode)

	assert.Equal(t, []string{womenQuery}, f.store.Queries())
	assert.Equal(t, res.Path, f.nodes(t))

	prompts := f.gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], `[{"total":1234}]`)
}

func TestEngine_Explanation(t *testing.T) {
	f := newFixture()
	f.gen = llm("Taxa de mortalidade é a proporção de óbitos na população.")
	res := ask(t, f.engine(), "Explique o que é taxa de mortalidade")

	assert.Equal(t, []string{"router", "explanation"}, res.Path)
	assert.Equal(t, "Taxa de mortalidade é a proporção de óbitos na população.", res.Answer(""))
	require.NotNil(t, res.State.Explanation)
	assert.Equal(t, res.Answer(""), *res.State.Explanation)
	assert.Zero(t, f.translator.Calls())
}

func TestEngine_OutOfScope(t *testing.T) {
	f := newFixture()
	f.gen = &testutils.Generator{Text: "Não"}
	e := f.engine()

	res := ask(t, e, "Qual a cotação do dólar hoje?")

	assert.Equal(t, e.Messages().OutOfScope, res.Answer(""))
	assert.Equal(t, []string{"router"}, res.Path)
	assert.Zero(t, f.translator.Calls())
	assert.Empty(t, f.store.Queries())
	assert.Empty(t, f.news.Queries())

	events, _ := f.audit.Events(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, domain.FailureGuardrail, events[0].Failure)
	assert.Contains(t, events[0].Decision, guardrail.ReasonOutOfScope)
}

func TestEngine_EmptyQuestion(t *testing.T) {
	f := newFixture()
	e := f.engine()

	res := ask(t, e, "   ")

	assert.Equal(t, domain.DefaultMessages().OutOfScope, res.Answer(""))
	assert.Zero(t, f.gen.Calls())
}

func TestEngine_StoreFailure(t *testing.T) {
	f := newFixture()
	f.store.Err = errors.New("connection reset")

	res := ask(t, f.engine(), "Quantos casos de SRAG em mulheres em 2025?")

	assert.Equal(t, "Erro ao executar query SQL: connection reset", res.Answer(""))
	assert.Equal(t, []string{"router", "translation", "query_execution"}, res.Path)
	assert.Equal(t, 1, f.gen.Calls(), "only the classifier may reach the model")

	events, _ := f.audit.Events(context.Background())
	require.Len(t, events, 3)
	assert.Equal(t, domain.FailureUpstream, events[2].Failure)
}

func TestEngine_TranslationFailures(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		err     error
		want    string
		path    []string
		failure domain.FailureKind
	}{
		{
			name:    "translator error",
			err:     errors.New("rate limited"),
			want:    "Erro ao gerar a query SQL: rate limited",
			path:    []string{"router", "translation"},
			failure: domain.FailureUpstream,
		},
		{
			name:    "empty output",
			query:   "  ",
			want:    domain.DefaultMessages().TranslationFailed,
			path:    []string{"router", "translation"},
			failure: domain.FailureGuardrail,
		},
		{
			name:    "not read only",
			query:   "DELETE FROM srag_cases",
			want:    domain.DefaultMessages().TranslationFailed,
			path:    []string{"router", "translation"},
			failure: domain.FailureGuardrail,
		},
		{
			name:    "other table",
			query:   "SELECT * FROM pg_user",
			want:    domain.DefaultMessages().InvalidQuery,
			path:    []string{"router", "translation", "query_execution"},
			failure: domain.FailureGuardrail,
		},
		{
			name:    "comment smuggling",
			query:   "SELECT * FROM srag_cases; -- DROP",
			want:    domain.DefaultMessages().InvalidQuery,
			path:    []string{"router", "translation", "query_execution"},
			failure: domain.FailureGuardrail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.translator = &testutils.Translator{Query: tt.query, Err: tt.err}

			res := ask(t, f.engine(), "Quantos casos de SRAG em 2024?")

			assert.Equal(t, tt.want, res.Answer(""))
			assert.Equal(t, tt.path, res.Path)
			assert.Empty(t, f.store.Queries())

			events, _ := f.audit.Events(context.Background())
			assert.Equal(t, tt.failure, events[len(events)-1].Failure)
		})
	}
}

func TestEngine_SummarizationFailure(t *testing.T) {
	f := newFixture()
	f.gen = &testutils.Generator{Reply: func(prompt string) (string, error) {
		if strings.HasPrefix(prompt, guardrail.ScopePrompt("")) {
			return "Sim", nil
		}
		return "", errors.New("model overloaded")
	}}

	res := ask(t, f.engine(), "Quantos casos de SRAG em 2024?")

	assert.Equal(t, "Erro ao resumir o resultado da consulta: model overloaded", res.Answer(""))
	assert.Equal(t, "summarization", res.Path[len(res.Path)-1])
}

func TestEngine_NothingToSummarize(t *testing.T) {
	blank := domain.NewState("Quantos casos?")
	blank.QueryResult = domain.Text("  \n\t ")

	tests := []struct {
		name  string
		state domain.State
	}{
		{"missing result", domain.NewState("Quantos casos?")},
		{"whitespace result", blank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			res, err := f.engine().RunFrom(context.Background(), domain.NodeSummarization, tt.state)
			require.NoError(t, err)

			assert.Equal(t, []string{domain.NodeSummarization}, res.Path)
			assert.Equal(t, domain.DefaultMessages().NothingToSummarize, res.Answer(""))
			assert.Zero(t, f.gen.Calls())

			events, err := f.audit.Events(context.Background())
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, domain.FailureMisrouted, events[0].Failure)
		})
	}
}

func TestEngine_EmptyRowSet(t *testing.T) {
	f := newFixture()
	f.store.Rows = nil

	res := ask(t, f.engine(), "Quantos casos de SRAG em 1900?")

	r, ok := res.State.Result()
	require.True(t, ok)
	assert.Equal(t, "[]", r)
	assert.Equal(t, "summarization", res.Path[len(res.Path)-1])
}

func TestEngine_Fallback(t *testing.T) {
	t.Run("without query", func(t *testing.T) {
		f := newFixture()
		res := ask(t, f.engine(), "SRAG em Pernambuco")

		assert.Equal(t, []string{"router", "query_execution"}, res.Path)
		assert.Equal(t, domain.DefaultMessages().NoQuery, res.Answer(""))

		events, _ := f.audit.Events(context.Background())
		assert.Equal(t, "Fallback para query_execution", events[0].Decision)
		assert.Equal(t, domain.FailureMisrouted, events[1].Failure)
	})

	t.Run("with seeded query", func(t *testing.T) {
		f := newFixture()
		seed := domain.NewState("SRAG em Pernambuco")
		seed.GeneratedQuery = domain.Text("SELECT COUNT(*) FROM srag_cases WHERE SG_UF_NOT = 'PE'")

		res, err := f.engine().Run(context.Background(), seed)
		require.NoError(t, err)

		assert.Equal(t, []string{"router", "query_execution", "summarization"}, res.Path)
		assert.Zero(t, f.translator.Calls())
	})
}

func TestEngine_StaleDirectiveIgnored(t *testing.T) {
	f := newFixture()
	seed := domain.NewState("Quantos casos de SRAG em 2024?")
	seed.NextNode = domain.Text(domain.NodeNews)
	seed.FinalResult = domain.Text("stale")

	res, err := f.engine().Run(context.Background(), seed)
	require.NoError(t, err)

	assert.Equal(t, "translation", res.Path[1])
	assert.Empty(t, f.news.Queries())

	events, _ := f.audit.Events(context.Background())
	assert.Nil(t, events[0].InputState.NextNode)
	assert.Nil(t, events[0].InputState.FinalResult)
}

func TestEngine_News(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
		want string
	}{
		{
			name: "reliable",
			text: "Boletim InfoGripe registra alta de SRAG no Brasil nesta semana",
			want: "Boletim InfoGripe registra alta de SRAG no Brasil nesta semana",
		},
		{
			name: "no locale",
			text: "Respiratory illness rises in several countries this season",
			want: domain.DefaultMessages().NewsUnreliable,
		},
		{
			name: "too short",
			text: "Brasil",
			want: domain.DefaultMessages().NewsUnreliable,
		},
		{
			name: "search error",
			err:  errors.New("401 unauthorized"),
			want: "Erro ao buscar notícias: 401 unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.news = &testutils.News{Text: tt.text, Err: tt.err}

			res := ask(t, f.engine(), "Quais as últimas notícias sobre SRAG?")

			assert.Equal(t, []string{"router", "news"}, res.Path)
			assert.Equal(t, tt.want, res.Answer(""))
			assert.Equal(t, []string{"Quais as últimas notícias sobre SRAG?"}, f.news.Queries())
		})
	}
}

func TestEngine_SummaryEntry(t *testing.T) {
	f := newFixture()

	res, err := f.engine().RunFrom(context.Background(), domain.NodeSummary, domain.NewState(""))
	require.NoError(t, err)

	assert.Equal(t, []string{"summary"}, res.Path)
	assert.Equal(t, "Resumo executivo de SRAG", res.Answer(""))
	require.NotNil(t, res.State.Summary)

	f.summarizer.Err = errors.New("timeout")
	res, err = f.engine().RunFrom(context.Background(), domain.NodeSummary, domain.NewState(""))
	require.NoError(t, err)
	assert.Equal(t, "Erro ao gerar resumo executivo: timeout", res.Answer(""))
}

func TestEngine_UnknownEntry(t *testing.T) {
	_, err := newFixture().engine().RunFrom(context.Background(), "billing", domain.NewState("x"))
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestEngine_Idempotent(t *testing.T) {
	f := newFixture()
	e := f.engine()

	first := ask(t, e, "Qual a taxa de ocupação de UTI por SRAG?")
	second := ask(t, e, "Qual a taxa de ocupação de UTI por SRAG?")

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.Answer(""), second.Answer(""))
}

func TestEngine_MissingServices(t *testing.T) {
	e := runtime.NewEngine(runtime.Services{
		Guard: guardrail.NewInputGuard(nil),
	})
	msgs := domain.DefaultMessages()

	tests := []struct {
		question string
		want     string
	}{
		{"Quantos casos de SRAG?", domain.Format(msgs.TranslationError, errors.New("not configured"))},
		{"Explique o que é SRAG", domain.Format(msgs.ExplanationFailed, errors.New("not configured"))},
		{"Últimas notícias de SRAG", domain.Format(msgs.NewsFailed, errors.New("not configured"))},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			assert.Equal(t, tt.want, ask(t, e, tt.question).Answer(""))
		})
	}
}

func TestEngine_EmptyExplanation(t *testing.T) {
	f := newFixture()
	f.gen = llm("   ")

	res := ask(t, f.engine(), "O que é letalidade?")

	assert.Equal(t, "Erro ao gerar explicação: empty response", res.Answer(""))
}

func TestEngine_CustomMessages(t *testing.T) {
	f := newFixture()
	f.gen = &testutils.Generator{Text: "no"}
	e := runtime.NewEngine(runtime.Services{
		Generator: f.gen,
		Messages:  domain.Messages{OutOfScope: "Only SRAG questions, please."},
	})

	assert.Equal(t, "Only SRAG questions, please.", ask(t, e, "Who won the match?").Answer(""))
	assert.Equal(t, domain.DefaultMessages().NoResult, e.Messages().NoResult)
}

func TestEngine_Hooks(t *testing.T) {
	f := newFixture()
	var entered, left []string
	var failures []domain.FailureKind

	e := f.engine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) { entered = append(entered, ev.NodeID) },
		OnNodeLeave: func(_ context.Context, ev *domain.NodeEvent) {
			left = append(left, ev.NodeID)
			failures = append(failures, ev.Failure)
			assert.Equal(t, "req-1", ev.RequestID)
		},
	}))

	f.store.Err = errors.New("boom")
	res := ask(t, e, "Quantos casos de SRAG em 2024?")

	assert.Equal(t, res.Path, entered)
	assert.Equal(t, res.Path, left)
	assert.Equal(t, domain.FailureUpstream, failures[len(failures)-1])
}

type brokenSink struct{ calls int }

func (b *brokenSink) Record(context.Context, domain.AuditEvent) error {
	b.calls++
	return errors.New("read-only filesystem")
}

func TestEngine_AuditFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	sink := &brokenSink{}

	res := ask(t, f.engine(runtime.WithAuditSink(sink)), "Explique o que é SRAG")

	assert.Equal(t, 2, sink.calls)
	assert.NotEmpty(t, res.Answer(""))
}

func TestEngine_AuditSnapshots(t *testing.T) {
	f := newFixture()
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ask(t, f.engine(runtime.WithClock(func() time.Time { return clock })), "Quantos casos de SRAG em 2024?")

	events, _ := f.audit.Events(context.Background())
	require.Len(t, events, 4)

	router := events[0]
	assert.Equal(t, "req-1", router.RequestID)
	assert.Equal(t, clock, router.Timestamp)
	next, ok := router.OutputState.Next()
	require.True(t, ok)
	assert.Equal(t, domain.NodeTranslation, next)

	translation := events[1]
	assert.Nil(t, translation.InputState.NextNode, "directive must be consumed before the next node")
	assert.Equal(t, []string{"generated_query"}, domain.Diff(translation.InputState, translation.OutputState))

	for _, ev := range events {
		assert.Equal(t, "Quantos casos de SRAG em 2024?", ev.OutputState.Question)
	}
}

type blockingStore struct{}

func (blockingStore) Execute(ctx context.Context, _ string) ([]ports.Row, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestEngine_NodeTimeout(t *testing.T) {
	f := newFixture()
	e := runtime.NewEngine(runtime.Services{
		Generator:  f.gen,
		Translator: f.translator,
		Store:      blockingStore{},
	}, runtime.WithNodeTimeout(20*time.Millisecond))

	res := ask(t, e, "Quantos casos de SRAG em 2024?")

	assert.Equal(t, "Erro ao executar query SQL: context deadline exceeded", res.Answer(""))
}
