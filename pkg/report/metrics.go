// Package report builds the executive summary: surveillance metrics over the
// last days combined with recent news and handed to a text generator.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/srag/pkg/ports"
)

// ErrInvalidFilter is returned for filter keys that are not plain column names.
var ErrInvalidFilter = errors.New("invalid filter column")

// Filters restricts every metric to rows whose columns equal the values.
type Filters map[string]any

var column = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// WhereClause renders filters as "WHERE k = v AND ...". Strings are quoted,
// numbers and booleans are bare, keys are sorted. No filters render as "".
func WhereClause(f Filters) (string, error) {
	conds, err := conditions(f)
	if err != nil || len(conds) == 0 {
		return "", err
	}
	return "WHERE " + strings.Join(conds, " AND "), nil
}

func conditions(f Filters) ([]string, error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		if !column.MatchString(k) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := f[k].(type) {
		case string:
			out = append(out, fmt.Sprintf("%s = '%s'", k, strings.ReplaceAll(v, "'", "''")))
		case int, int32, int64, float32, float64, bool:
			out = append(out, fmt.Sprintf("%s = %v", k, v))
		default:
			return nil, fmt.Errorf("%w: unsupported value for %s", ErrInvalidFilter, k)
		}
	}
	return out, nil
}

// DailyCasesQuery counts cases per symptom-onset day over the last days.
func DailyCasesQuery(days int, f Filters) (string, error) {
	conds, err := conditions(f)
	if err != nil {
		return "", err
	}
	where := fmt.Sprintf("DT_SIN_PRI >= CURRENT_DATE - INTERVAL '%d days'", days)
	for _, c := range conds {
		where += " AND " + c
	}
	return "SELECT DT_SIN_PRI AS data, COUNT(*) AS casos FROM srag_cases WHERE " + where +
		" GROUP BY DT_SIN_PRI ORDER BY DT_SIN_PRI", nil
}

// RateQuery computes the fraction of cases whose col equals value.
func RateQuery(col, value string, f Filters) (string, error) {
	where, err := WhereClause(f)
	if err != nil {
		return "", err
	}
	q := fmt.Sprintf("SELECT SUM(CASE WHEN %s = '%s' THEN 1 ELSE 0 END) * 1.0 / NULLIF(COUNT(*), 0) AS taxa FROM srag_cases", col, value)
	if where != "" {
		q += " " + where
	}
	return q, nil
}

// Rate definitions.
var (
	MortalityRate        = Rate{Column: "EVOLUCAO", Value: "2"}
	ICURate              = Rate{Column: "UTI", Value: "1"}
	CovidVaccinationRate = Rate{Column: "VACINA_COV", Value: "1"}
	FluVaccinationRate   = Rate{Column: "VACINA", Value: "1"}
)

// Rate names the coded value counted by a rate.
type Rate struct {
	Column string
	Value  string
}

// DailyCount is one point of the daily series.
type DailyCount struct {
	Day   string
	Cases float64
}

// Metrics are the indicators of the executive summary. Nil rates mean the
// denominator was empty.
type Metrics struct {
	Daily            []DailyCount
	IncreaseRate     *float64
	Mortality        *float64
	ICU              *float64
	CovidVaccination *float64
	FluVaccination   *float64
}

// Collect runs every metric query concurrently.
func Collect(ctx context.Context, store ports.DataStore, days int, f Filters) (Metrics, error) {
	var m Metrics
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q, err := DailyCasesQuery(days, f)
		if err != nil {
			return err
		}
		rows, err := store.Execute(ctx, q)
		if err != nil {
			return fmt.Errorf("daily cases: %w", err)
		}
		m.Daily = dailySeries(rows)
		m.IncreaseRate = increase(m.Daily)
		return nil
	})

	rates := []struct {
		rate Rate
		dst  **float64
	}{
		{MortalityRate, &m.Mortality},
		{ICURate, &m.ICU},
		{CovidVaccinationRate, &m.CovidVaccination},
		{FluVaccinationRate, &m.FluVaccination},
	}
	for _, r := range rates {
		g.Go(func() error {
			q, err := RateQuery(r.rate.Column, r.rate.Value, f)
			if err != nil {
				return err
			}
			rows, err := store.Execute(ctx, q)
			if err != nil {
				return fmt.Errorf("%s rate: %w", strings.ToLower(r.rate.Column), err)
			}
			*r.dst = scalar(rows, "taxa")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Metrics{}, err
	}
	return m, nil
}

func dailySeries(rows []ports.Row) []DailyCount {
	out := make([]DailyCount, 0, len(rows))
	for _, r := range rows {
		n, ok := number(r["casos"])
		if !ok {
			continue
		}
		out = append(out, DailyCount{Day: fmt.Sprint(r["data"]), Cases: n})
	}
	return out
}

// increase compares the last day with the first; a zero first day counts as one.
func increase(series []DailyCount) *float64 {
	if len(series) < 2 {
		return nil
	}
	first, last := series[0].Cases, series[len(series)-1].Cases
	v := (last - first) / math.Max(first, 1)
	return &v
}

func scalar(rows []ports.Row, key string) *float64 {
	if len(rows) == 0 {
		return nil
	}
	v, ok := number(rows[0][key])
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
