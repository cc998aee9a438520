package report

import (
	"cmp"
	"hash/fnv"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
)

// Bucket labels.
const (
	LabelFrequentante   = "Frequentante"
	LabelAfastado       = "Afastado"
	LabelNoData         = "Sem dados"
	LabelPaid           = "Em Dia"
	LabelUnpaid         = "Inadimplentes"
	LabelNoCategory     = "Sem categoria"
	LabelPaymentsIncome = "Mensalidades"
)

// Bucket colors.
const (
	ColorGreen = "#10B981"
	ColorAmber = "#F59E0B"
	ColorRed   = "#EF4444"
	ColorGray  = "#9CA3AF"
)

var fallbackPalette = []string{
	"#3B82F6", "#8B5CF6", "#EC4899", "#14B8A6", "#F97316",
	"#84CC16", "#06B6D4", "#A855F7", "#E11D48", "#0EA5E9",
}

// Bucket is one chart slice.
type Bucket struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

// PaymentCounts is the distinct-member paid/unpaid split of a month.
type PaymentCounts struct {
	Paid   int `json:"paid"`
	Unpaid int `json:"unpaid"`
}

// Buckets renders the counts as the Em Dia / Inadimplentes pair.
func (c PaymentCounts) Buckets() []Bucket {
	return []Bucket{
		{Name: LabelPaid, Value: decimal.NewFromInt(int64(c.Paid)), Color: ColorGreen},
		{Name: LabelUnpaid, Value: decimal.NewFromInt(int64(c.Unpaid)), Color: ColorRed},
	}
}

// CategoryIncome is one revenue line of the financial summary.
type CategoryIncome struct {
	CategoryID *uuid.UUID      `json:"categoryId,omitempty"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
}

// FinancialSummary holds the month's totals.
type FinancialSummary struct {
	TotalIncome        decimal.Decimal  `json:"totalIncome"`
	TotalExpenses      decimal.Decimal  `json:"totalExpenses"`
	Balance            decimal.Decimal  `json:"balance"`
	TotalPaymentIncome decimal.Decimal  `json:"totalPaymentIncome"`
	CategoryIncomes    []CategoryIncome `json:"categoryIncomes"`
}

// EmptySummary is the zero-valued summary.
func EmptySummary() FinancialSummary {
	return FinancialSummary{
		TotalIncome:        decimal.Zero,
		TotalExpenses:      decimal.Zero,
		Balance:            decimal.Zero,
		TotalPaymentIncome: decimal.Zero,
		CategoryIncomes:    []CategoryIncome{},
	}
}

// EmptyMemberStatus is the dataset shown when there is nothing to count.
func EmptyMemberStatus() []Bucket {
	return []Bucket{{Name: LabelNoData, Value: decimal.Zero, Color: ColorGray}}
}

// EmptyPaymentStatus is the two zero buckets used when no data is available.
func EmptyPaymentStatus() []Bucket {
	return PaymentCounts{}.Buckets()
}

// MemberStatusDistribution counts members per status. Unknown statuses are
// skipped. With nothing recognised the single Sem dados bucket is returned.
func MemberStatusDistribution(members []models.Member) []Bucket {
	var active, away int64
	for _, m := range members {
		switch m.Status {
		case models.MemberStatusFrequentante:
			active++
		case models.MemberStatusAfastado:
			away++
		default:
			logger.Log.Warn().
				Str("member_id", logger.HashMemberID(m.ID)).
				Str("status", string(m.Status)).
				Msg("Skipping member with unknown status")
		}
	}

	if active+away == 0 {
		return EmptyMemberStatus()
	}
	return []Bucket{
		{Name: LabelFrequentante, Value: decimal.NewFromInt(active), Color: ColorGreen},
		{Name: LabelAfastado, Value: decimal.NewFromInt(away), Color: ColorAmber},
	}
}

func inPeriod(p models.Payment, per period.Period) bool {
	return p.Month == per.Key() && p.Year == per.Year
}

// CountPayments partitions members into paid and unpaid for the period.
// A member is paid with at least one paid row. The member universe is the
// roster plus everyone with a row in the period, each counted once.
func CountPayments(payments []models.Payment, per period.Period, roster []uuid.UUID) PaymentCounts {
	status := make(map[uuid.UUID]bool, len(roster))
	for _, id := range roster {
		status[id] = false
	}
	for _, p := range payments {
		if !inPeriod(p, per) {
			continue
		}
		status[p.MemberID] = status[p.MemberID] || p.IsPaid
	}

	var counts PaymentCounts
	for _, paid := range status {
		if paid {
			counts.Paid++
		} else {
			counts.Unpaid++
		}
	}
	return counts
}

// PaymentStatusDistribution returns the Em Dia / Inadimplentes buckets.
func PaymentStatusDistribution(payments []models.Payment, per period.Period, roster []uuid.UUID) []Bucket {
	return CountPayments(payments, per, roster).Buckets()
}

// FallbackColor picks a stable palette color for key.
func FallbackColor(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return fallbackPalette[h.Sum32()%uint32(len(fallbackPalette))]
}

type categoryInfo struct {
	name  string
	color string
}

func categoryIndex(categories []models.ExpenseCategory) map[uuid.UUID]categoryInfo {
	idx := make(map[uuid.UUID]categoryInfo, len(categories))
	for _, c := range categories {
		idx[c.ID] = categoryInfo{name: c.Name, color: c.Color}
	}
	return idx
}

func resolveCategory(e models.Expense, idx map[uuid.UUID]categoryInfo) categoryInfo {
	if e.CategoryID == nil {
		return categoryInfo{name: LabelNoCategory, color: ColorGray}
	}
	info, ok := idx[*e.CategoryID]
	if !ok && e.Category != nil {
		info = categoryInfo{name: e.Category.Name, color: e.Category.Color}
		ok = true
	}
	if !ok || info.name == "" {
		info.name = LabelNoCategory
	}
	if info.color == "" {
		info.color = FallbackColor(e.CategoryID.String())
	}
	return info
}

type categoryTotal struct {
	id    *uuid.UUID
	info  categoryInfo
	total decimal.Decimal
}

// groupByCategory sums amounts of the selected entries per category, in
// descending order of amount and then by name.
func groupByCategory(
	expenses []models.Expense,
	categories []models.ExpenseCategory,
	keep func(models.Expense) bool,
) []categoryTotal {
	idx := categoryIndex(categories)
	byKey := make(map[uuid.UUID]*categoryTotal)

	for _, e := range expenses {
		if !keep(e) {
			continue
		}
		key := uuid.Nil
		if e.CategoryID != nil {
			key = *e.CategoryID
		}
		ct, ok := byKey[key]
		if !ok {
			ct = &categoryTotal{id: e.CategoryID, info: resolveCategory(e, idx), total: decimal.Zero}
			byKey[key] = ct
		}
		ct.total = ct.total.Add(e.Amount)
	}

	totals := make([]categoryTotal, 0, len(byKey))
	for _, ct := range byKey {
		totals = append(totals, *ct)
	}
	slices.SortFunc(totals, func(a, b categoryTotal) int {
		if c := b.total.Cmp(a.total); c != 0 {
			return c
		}
		return cmp.Compare(a.info.name, b.info.name)
	})
	return totals
}

// ExpensesByCategory sums the period's non-revenue entries per category.
func ExpensesByCategory(expenses []models.Expense, categories []models.ExpenseCategory, per period.Period) []Bucket {
	totals := groupByCategory(expenses, categories, func(e models.Expense) bool {
		return per.Contains(e.Date) && !e.Type.IsRevenue()
	})

	buckets := make([]Bucket, 0, len(totals))
	for _, ct := range totals {
		buckets = append(buckets, Bucket{Name: ct.info.name, Value: ct.total, Color: ct.info.color})
	}
	return buckets
}

// Summarize computes the period's income, expenses and balance. Income is
// paid dues plus revenue entries.
func Summarize(
	payments []models.Payment,
	expenses []models.Expense,
	categories []models.ExpenseCategory,
	per period.Period,
) FinancialSummary {
	summary := EmptySummary()

	for _, p := range payments {
		if inPeriod(p, per) && p.IsPaid {
			summary.TotalPaymentIncome = summary.TotalPaymentIncome.Add(p.Amount)
		}
	}

	for _, e := range expenses {
		if per.Contains(e.Date) && !e.Type.IsRevenue() {
			summary.TotalExpenses = summary.TotalExpenses.Add(e.Amount)
		}
	}

	revenue := groupByCategory(expenses, categories, func(e models.Expense) bool {
		return per.Contains(e.Date) && e.Type.IsRevenue()
	})
	revenueTotal := decimal.Zero
	for _, ct := range revenue {
		summary.CategoryIncomes = append(summary.CategoryIncomes, CategoryIncome{
			CategoryID: ct.id,
			Name:       ct.info.name,
			Amount:     ct.total,
		})
		revenueTotal = revenueTotal.Add(ct.total)
	}

	summary.TotalIncome = summary.TotalPaymentIncome.Add(revenueTotal)
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpenses)
	return summary
}

// BuildMonthlyRecord derives the completion record for the period with the
// same member semantics as CountPayments.
func BuildMonthlyRecord(payments []models.Payment, per period.Period, roster []uuid.UUID) models.MonthlyRecord {
	counts := CountPayments(payments, per, roster)
	rec := models.MonthlyRecord{
		Month:           per.Key(),
		Year:            per.Year,
		TotalMembers:    counts.Paid + counts.Unpaid,
		PaidMembers:     counts.Paid,
		UnpaidMembers:   counts.Unpaid,
		TotalAmount:     decimal.Zero,
		CollectedAmount: decimal.Zero,
	}
	for _, p := range payments {
		if !inPeriod(p, per) {
			continue
		}
		rec.TotalAmount = rec.TotalAmount.Add(p.Amount)
		if p.IsPaid {
			rec.CollectedAmount = rec.CollectedAmount.Add(p.Amount)
		}
	}
	return rec
}

// CountsFromRecord converts a backend aggregate into paid/unpaid counts,
// treating missing or inconsistent fields as zero.
func CountsFromRecord(rec *models.MonthlyRecord) PaymentCounts {
	if rec == nil {
		return PaymentCounts{}
	}
	paid := max(rec.PaidMembers, 0)
	unpaid := rec.UnpaidMembers
	if unpaid <= 0 && rec.TotalMembers > paid {
		unpaid = rec.TotalMembers - paid
	}
	return PaymentCounts{Paid: paid, Unpaid: max(unpaid, 0)}
}
