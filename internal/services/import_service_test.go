package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDecimalCell(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{"1500", "1500"},
		{"1 500,50", "1500.5"},
		{"1500.50", "1500.5"},
		{"0,001", "0.001"},
		{"", "0"},
		{"not a number", "0"},
	}

	for _, tc := range cases {
		got := parseDecimalCell(tc.raw)
		if !got.Equal(decimal.RequireFromString(tc.expected)) {
			t.Errorf("parseDecimalCell(%q): expected %s, got %s", tc.raw, tc.expected, got)
		}
	}
}

func TestParseImportDate(t *testing.T) {
	cases := []string{
		"2025-06-15",
		"15/06/2025",
		"2025-06-15 14:30:00",
		"15/06/2025 14:30",
	}

	for _, raw := range cases {
		got, err := parseImportDate(raw)
		if err != nil {
			t.Errorf("parseImportDate(%q): unexpected error %v", raw, err)
			continue
		}
		if got.Year() != 2025 || got.Month() != 6 || got.Day() != 15 {
			t.Errorf("parseImportDate(%q): expected 2025-06-15, got %s", raw, got)
		}
		if got.Hour() != 0 {
			t.Errorf("parseImportDate(%q): expected time truncated to midnight, got %s", raw, got)
		}
	}

	if _, err := parseImportDate(""); err == nil {
		t.Error("expected error for empty date")
	}
	if _, err := parseImportDate("June 15th"); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestMatchSheets(t *testing.T) {
	matched := matchSheets([]string{"Produits", "Achats", "Commandes_Detaillees"})

	if matched["products"] != "Produits" {
		t.Errorf("expected Produits for products, got %q", matched["products"])
	}
	if matched["purchases"] != "Achats" {
		t.Errorf("expected Achats for purchases, got %q", matched["purchases"])
	}
	if matched["sales"] != "Commandes_Detaillees" {
		t.Errorf("expected Commandes_Detaillees for sales, got %q", matched["sales"])
	}
}

func TestMatchSheetsSubstring(t *testing.T) {
	matched := matchSheets([]string{"Ventes 2025", "Autres"})
	if matched["sales"] != "Ventes 2025" {
		t.Errorf("expected substring match on Ventes 2025, got %q", matched["sales"])
	}
	if _, ok := matched["products"]; ok {
		t.Error("expected no product sheet match")
	}
}

func TestMapColumnsFrenchHeaders(t *testing.T) {
	header := []string{
		"Date de la commande", "Commander", "Variante de produit",
		"Qté commandée", "Prix unitaire", "Total", "Client", "Vendeur",
	}
	columns := mapColumns("sales", header)

	expected := map[string]int{
		"sale_date":        0,
		"order_number":     1,
		"product":          2,
		"quantity_sold":    3,
		"unit_sale_price":  4,
		"total_sale_price": 5,
		"customer":         6,
		"cashier":          7,
	}
	for name, idx := range expected {
		if columns[name] != idx {
			t.Errorf("column %s: expected index %d, got %d", name, idx, columns[name])
		}
	}
}

func TestImportResultTracksAffectedDates(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	}

	result := &ImportResult{}
	result.addPurchaseDate(day(10))
	result.addPurchaseDate(day(10))
	result.addPurchaseDate(day(2))
	result.addSaleDate(day(10))

	purchaseDates := sortedDates(result.purchaseDates)
	if len(purchaseDates) != 2 {
		t.Fatalf("expected 2 distinct purchase dates, got %d", len(purchaseDates))
	}
	if !purchaseDates[0].Equal(day(2)) || !purchaseDates[1].Equal(day(10)) {
		t.Errorf("expected dates ordered oldest first, got %v", purchaseDates)
	}

	saleDates := sortedDates(result.saleDates)
	if len(saleDates) != 1 || !saleDates[0].Equal(day(10)) {
		t.Errorf("expected one sale date, got %v", saleDates)
	}
}

func TestCellOutOfRange(t *testing.T) {
	columns := map[string]int{"total": 5}
	if got := cell([]string{"a", "b"}, columns, "total"); got != "" {
		t.Errorf("expected empty string for out-of-range column, got %q", got)
	}
	if got := cell([]string{"a"}, columns, "missing"); got != "" {
		t.Errorf("expected empty string for unknown column, got %q", got)
	}
}
