package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/srag/pkg/ports"
)

// DefaultDays is the window of the daily series.
const DefaultDays = 30

// MaxNews is how many news items reach the prompt.
const MaxNews = 3

// NewsItem is a headline with its link. URL is empty for raw text items.
type NewsItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ParseNews reads a JSON list of {title, url} objects. Anything else is kept
// as a single raw item.
func ParseNews(raw string) []NewsItem {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []NewsItem{{Title: raw}}
	}

	out := make([]NewsItem, 0, len(list))
	for _, el := range list {
		var item NewsItem
		if err := json.Unmarshal(el, &item); err == nil && item.Title != "" && item.URL != "" {
			out = append(out, item)
			continue
		}
		var s string
		if err := json.Unmarshal(el, &s); err == nil {
			out = append(out, NewsItem{Title: s})
			continue
		}
		out = append(out, NewsItem{Title: string(el)})
	}
	return out
}

func percent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// Prompt renders the executive summary instruction.
func Prompt(m Metrics, news []NewsItem) string {
	var b strings.Builder
	b.WriteString("Você é um agente epidemiológico. Faça um resumo executivo, em português, para um gestor de saúde, " +
		"combinando as métricas abaixo, as tendências dos dados e as notícias recentes sobre SRAG no Brasil. " +
		"Destaque riscos, alertas, pontos positivos e negativos. Seja conciso e analítico.\n\n")

	fmt.Fprintf(&b, "Métricas (últimos %d dias):\n", DefaultDays)
	fmt.Fprintf(&b, "- Taxa de aumento de casos: %s\n", percent(m.IncreaseRate))
	fmt.Fprintf(&b, "- Taxa de mortalidade: %s\n", percent(m.Mortality))
	fmt.Fprintf(&b, "- Taxa de ocupação UTI: %s\n", percent(m.ICU))
	fmt.Fprintf(&b, "- Vacinação COVID-19: %s\n", percent(m.CovidVaccination))
	fmt.Fprintf(&b, "- Vacinação Gripe: %s\n", percent(m.FluVaccination))

	b.WriteString("\nNotícias recentes:\n")
	if len(news) == 0 {
		b.WriteString("- Nenhuma notícia disponível.\n")
	}
	for i, n := range news {
		if i == MaxNews {
			break
		}
		if n.URL != "" {
			fmt.Fprintf(&b, "- %s (%s)\n", n.Title, n.URL)
		} else {
			fmt.Fprintf(&b, "- %s\n", n.Title)
		}
	}

	b.WriteString("\nTendências: analise os dados acima e as notícias para gerar um panorama geral.\n")
	return b.String()
}

// Summarizer implements ports.Summarizer.
type Summarizer struct {
	store   ports.DataStore
	news    ports.NewsSearcher
	gen     ports.Generator
	days    int
	filters Filters
	logger  *slog.Logger
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithFilters restricts every metric.
func WithFilters(f Filters) Option {
	return func(s *Summarizer) { s.filters = f }
}

// WithDays changes the window of the daily series.
func WithDays(days int) Option {
	return func(s *Summarizer) {
		if days > 0 {
			s.days = days
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Summarizer) { s.logger = logger }
}

// NewSummarizer creates a Summarizer. news may be nil.
func NewSummarizer(store ports.DataStore, news ports.NewsSearcher, gen ports.Generator, opts ...Option) *Summarizer {
	s := &Summarizer{store: store, news: news, gen: gen, days: DefaultDays}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Summarize collects metrics and news concurrently and asks the generator
// for the summary. A news failure only drops the news section.
func (s *Summarizer) Summarize(ctx context.Context) (string, error) {
	if s.store == nil || s.gen == nil {
		return "", fmt.Errorf("summary requires a data store and a generator")
	}

	var (
		metrics Metrics
		news    []NewsItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = Collect(gctx, s.store, s.days, s.filters)
		return err
	})
	if s.news != nil {
		g.Go(func() error {
			raw, err := s.news.Search(gctx, "")
			if err != nil {
				s.logger.Warn("news unavailable for summary", "error", err)
				return nil
			}
			news = ParseNews(raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to collect metrics: %w", err)
	}

	text, err := s.gen.Generate(ctx, Prompt(metrics, news))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	return text, nil
}
