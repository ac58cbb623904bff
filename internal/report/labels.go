package report

import (
	"time"

	"golang.org/x/text/language"

	"budget/internal/core"
)

// Labels holds every human-readable string of a report in one language.
type Labels struct {
	Tag language.Tag

	FilePrefix    string
	ExpensesSheet string
	SummarySheet  string
	// DateLayout is a time.Format layout for the expense date column.
	DateLayout string
	// Location is the zone expense dates are shown in; nil means time.Local.
	Location *time.Location

	DateHeader        string
	DescriptionHeader string
	CategoryHeader    string
	AmountHeader      string
	ItemHeader        string
	ValueHeader       string

	Income         string
	TotalSpent     string
	TotalRemaining string

	// AllocationFormat, SpentFormat and RemainingFormat take the plural
	// category name; AllocationFormat also takes the share percentage.
	AllocationFormat string
	SpentFormat      string
	RemainingFormat  string

	// Category is used on expense rows, CategoryPlural on summary rows.
	Category       map[core.Category]string
	CategoryPlural map[core.Category]string
}

var english = Labels{
	Tag:               language.English,
	FilePrefix:        "Budget",
	ExpensesSheet:     "Expenses",
	SummarySheet:      "Summary",
	DateLayout:        "2006-01-02",
	DateHeader:        "Date",
	DescriptionHeader: "Description",
	CategoryHeader:    "Category",
	AmountHeader:      "Amount",
	ItemHeader:        "Item",
	ValueHeader:       "Value",
	Income:            "Monthly income",
	TotalSpent:        "Total spent",
	TotalRemaining:    "Available",
	AllocationFormat:  "Allocation - %s (%s%%)",
	SpentFormat:       "Spent - %s",
	RemainingFormat:   "Remaining - %s",
	Category: map[core.Category]string{
		core.Necessity: "Necessity",
		core.Want:      "Want",
		core.Saving:    "Saving",
	},
	CategoryPlural: map[core.Category]string{
		core.Necessity: "Necessities",
		core.Want:      "Wants",
		core.Saving:    "Savings",
	},
}

var brazilianPortuguese = Labels{
	Tag:               language.BrazilianPortuguese,
	FilePrefix:        "Orçamento",
	ExpensesSheet:     "Despesas",
	SummarySheet:      "Resumo",
	DateLayout:        "02/01/2006",
	DateHeader:        "Data",
	DescriptionHeader: "Descrição",
	CategoryHeader:    "Categoria",
	AmountHeader:      "Valor",
	ItemHeader:        "Item",
	ValueHeader:       "Valor",
	Income:            "Renda Mensal",
	TotalSpent:        "Total Gasto",
	TotalRemaining:    "Disponível",
	AllocationFormat:  "Alocação - %s (%s%%)",
	SpentFormat:       "Gasto - %s",
	RemainingFormat:   "Restante - %s",
	Category: map[core.Category]string{
		core.Necessity: "Necessidade",
		core.Want:      "Desejo",
		core.Saving:    "Poupança",
	},
	CategoryPlural: map[core.Category]string{
		core.Necessity: "Necessidades",
		core.Want:      "Desejos",
		core.Saving:    "Poupança",
	},
}

var (
	supported = []Labels{english, brazilianPortuguese}
	matcher   = language.NewMatcher([]language.Tag{english.Tag, brazilianPortuguese.Tag})
)

// LabelsFor picks the closest supported language for locale, which may be a
// single tag ("pt-BR") or an Accept-Language value. English is the fallback.
func LabelsFor(locale string) Labels {
	_, idx := language.MatchStrings(matcher, locale)
	return supported[idx]
}

// Locales returns the tags of the supported report languages.
func Locales() []language.Tag {
	tags := make([]language.Tag, len(supported))
	for i, l := range supported {
		tags[i] = l.Tag
	}
	return tags
}

// CategoryLabel returns the display name of c, or the raw tag if c is unknown.
func (l Labels) CategoryLabel(c core.Category) string {
	if s, ok := l.Category[c]; ok {
		return s
	}
	return string(c)
}

// FormatDate renders t as a calendar day in the labels' location.
func (l Labels) FormatDate(t time.Time) string {
	loc := l.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(l.DateLayout)
}

func (l Labels) categoryPlural(c core.Category) string {
	if s, ok := l.CategoryPlural[c]; ok {
		return s
	}
	return string(c)
}
