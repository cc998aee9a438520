// Package format renders money, dates and status labels for club members.
package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

// MonthNames holds the Portuguese month names, index 0 is January.
var MonthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Currency formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func Currency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	return sign + "R$ " + groupThousands(intPart) + "," + fracPart
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

// Date formats a date as dd/mm/yyyy. The zero time renders as "-".
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// MonthName returns the Portuguese name of the month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return MonthNames[m-1]
}

// MonthLabel renders a period label such as "Março de 2024".
func MonthLabel(m time.Month, year int) string {
	name := MonthName(m)
	if name == "" {
		return ""
	}
	return name + " de " + strconv.Itoa(year)
}

// MemberStatusLabel returns the display label for a member status.
func MemberStatusLabel(status models.MemberStatus) string {
	switch status {
	case models.MemberStatusFrequentante:
		return "Frequentante"
	case models.MemberStatusAfastado:
		return "Afastado"
	default:
		return "Desconhecido"
	}
}

// PaymentStatusLabel returns the display label for a payment row.
func PaymentStatusLabel(isPaid bool) string {
	if isPaid {
		return "Pago"
	}
	return "Pendente"
}

// ExpenseTypeLabel returns the display label for a bookkeeping entry type.
func ExpenseTypeLabel(t models.ExpenseType) string {
	if t.IsRevenue() {
		return "Receita"
	}
	return "Despesa"
}

// Percent renders part/total with one decimal place, e.g. "42,9%".
func Percent(part, total decimal.Decimal) string {
	if total.IsZero() {
		return "0,0%"
	}
	pct := part.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1)
	return strings.Replace(pct, ".", ",", 1) + "%"
}
