// Package export renders report data as CSV files and PNG charts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"gitlab.com/yelinaung/club-ledger/internal/format"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/report"
)

// CSV section names.
const (
	SectionMemberStatus  = "Situação dos sócios"
	SectionPaymentStatus = "Mensalidades"
	SectionExpenses      = "Despesas por categoria"
	SectionSummary       = "Resumo financeiro"
	SectionIncome        = "Receitas por categoria"
)

// SnapshotCSV writes every dataset of a report snapshot, one row per bucket.
func SnapshotCSV(snap report.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Seção", "Nome", "Valor", "Cor"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	sections := []struct {
		name    string
		buckets []report.Bucket
	}{
		{SectionMemberStatus, snap.MemberStatus},
		{SectionPaymentStatus, snap.PaymentStatus},
		{SectionExpenses, snap.ExpensesByCategory},
	}
	for _, s := range sections {
		for _, b := range s.buckets {
			if err := writer.Write([]string{s.name, b.Name, b.Value.String(), b.Color}); err != nil {
				return nil, fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	sum := snap.Summary
	summaryRows := [][]string{
		{SectionSummary, "Receita total", sum.TotalIncome.StringFixed(2), ""},
		{SectionSummary, "Mensalidades recebidas", sum.TotalPaymentIncome.StringFixed(2), ""},
		{SectionSummary, "Despesas", sum.TotalExpenses.StringFixed(2), ""},
		{SectionSummary, "Saldo", sum.Balance.StringFixed(2), ""},
	}
	for _, ci := range sum.CategoryIncomes {
		summaryRows = append(summaryRows, []string{SectionIncome, ci.Name, ci.Amount.StringFixed(2), ""})
	}
	if err := writer.WriteAll(summaryRows); err != nil {
		return nil, fmt.Errorf("failed to write CSV summary: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExpensesCSV writes the bookkeeping entries of a period.
func ExpensesCSV(expenses []models.Expense) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"Data", "Tipo", "Valor", "Categoria", "Descrição", "Forma de pagamento"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range expenses {
		categoryName := report.LabelNoCategory
		if expenses[i].Category != nil {
			categoryName = expenses[i].Category.Name
		}

		row := []string{
			expenses[i].Date.Format("2006-01-02"),
			format.ExpenseTypeLabel(expenses[i].Type),
			expenses[i].Amount.StringFixed(2),
			categoryName,
			expenses[i].Description,
			expenses[i].PaymentMethod,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}
