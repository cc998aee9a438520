package export

import (
	"errors"
	"fmt"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"gitlab.com/yelinaung/club-ledger/internal/report"
)

// ErrNothingToChart is returned when every bucket is zero.
var ErrNothingToChart = errors.New("no data to chart")

// PieChart renders the non-zero buckets as a PNG pie chart.
func PieChart(title string, buckets []report.Bucket) ([]byte, error) {
	var values []float64
	var names []string
	for _, b := range buckets {
		if !b.Value.IsPositive() {
			continue
		}
		values = append(values, b.Value.InexactFloat64())
		names = append(names, b.Name)
	}
	if len(values) == 0 {
		return nil, ErrNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// Chart is a rendered chart with its file name.
type Chart struct {
	Filename string
	PNG      []byte
}

// SnapshotCharts renders one chart per dataset that has data.
func SnapshotCharts(snap report.Snapshot, per period.Period) ([]Chart, error) {
	datasets := []struct {
		slug    string
		title   string
		buckets []report.Bucket
	}{
		{"socios", "Situação dos sócios", snap.MemberStatus},
		{"mensalidades", "Mensalidades", snap.PaymentStatus},
		{"despesas", "Despesas por categoria", snap.ExpensesByCategory},
	}

	var out []Chart
	for _, d := range datasets {
		png, err := PieChart(fmt.Sprintf("%s - %s", d.title, per.Label()), d.buckets)
		if errors.Is(err, ErrNothingToChart) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Chart{Filename: Filename(d.slug, per, "png"), PNG: png})
	}
	return out, nil
}

// Filename builds names like "relatorio_2024-03.csv".
func Filename(prefix string, per period.Period, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, per.Key(), ext)
}
