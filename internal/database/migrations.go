package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS members (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'frequentante',
			join_date DATE NOT NULL DEFAULT CURRENT_DATE,
			email TEXT,
			phone TEXT,
			level INTEGER CHECK (level BETWEEN 0 AND 5),
			position_id UUID REFERENCES positions(id) ON DELETE SET NULL,
			telegram_user_id BIGINT UNIQUE,
			warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			member_id UUID NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			amount DECIMAL(12, 2) NOT NULL DEFAULT 0,
			month TEXT NOT NULL,
			year INTEGER NOT NULL,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			date DATE,
			payment_method TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_payments_month_year ON payments(month, year)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_member_id ON payments(member_id)`,

		`CREATE TABLE IF NOT EXISTS expense_categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			color TEXT,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			amount DECIMAL(12, 2) NOT NULL,
			date DATE NOT NULL,
			category_id UUID REFERENCES expense_categories(id) ON DELETE SET NULL,
			type TEXT NOT NULL DEFAULT 'despesa' CHECK (type IN ('despesa', 'receita')),
			description TEXT,
			payment_method TEXT,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_category_id ON expenses(category_id)`,

		`CREATE TABLE IF NOT EXISTS announcements (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			author_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// announcement_id carries no foreign key: deleting an announcement
		// leaves recipient rows behind, which readers repair on access.
		`CREATE TABLE IF NOT EXISTS announcement_recipients (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			announcement_id UUID NOT NULL,
			member_id UUID NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMPTZ,
			UNIQUE (announcement_id, member_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_announcement_recipients_member ON announcement_recipients(member_id)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// DefaultCategories are seeded on first start. Colors are chart hex values.
var DefaultCategories = []struct {
	Name  string
	Color string
}{
	{"Aluguel", "#6366f1"},
	{"Energia", "#f59e0b"},
	{"Água", "#0ea5e9"},
	{"Manutenção", "#ef4444"},
	{"Eventos", "#ec4899"},
	{"Materiais", "#14b8a6"},
	{"Doações", "#22c55e"},
	{"Outros", "#64748b"},
}

// SeedCategories inserts the default expense categories.
func SeedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	for _, cat := range DefaultCategories {
		_, err := pool.Exec(ctx,
			`INSERT INTO expense_categories (name, color) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			cat.Name, cat.Color,
		)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.Name, err)
		}
	}

	return nil
}
