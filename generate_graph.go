//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/export"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"gitlab.com/yelinaung/club-ledger/internal/report"
)

func main() {
	per := period.Period{Year: 2026, Month: time.January}
	day := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)

	categories := []models.ExpenseCategory{
		{ID: uuid.New(), Name: "Aluguel", Color: "#3B82F6"},
		{ID: uuid.New(), Name: "Energia", Color: "#F59E0B"},
		{ID: uuid.New(), Name: "Eventos", Color: "#EC4899"},
	}
	expenses := []models.Expense{
		{Amount: decimal.NewFromInt(1200), Date: day, CategoryID: &categories[0].ID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromFloat(310.40), Date: day, CategoryID: &categories[1].ID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(450), Date: day, CategoryID: &categories[2].ID, Type: models.ExpenseTypeDespesa},
		{Amount: decimal.NewFromInt(80), Date: day, Type: models.ExpenseTypeDespesa},
	}

	buckets := report.ExpensesByCategory(expenses, categories, per)
	chartData, err := export.PieChart("Despesas por categoria - "+per.Label(), buckets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example expense breakdown chart")
}
