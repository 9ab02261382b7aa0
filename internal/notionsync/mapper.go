package notionsync

import (
	"strings"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// Property names of the mirror database.
const (
	propTitle         = "Description"
	propTransactionID = "Transaction ID"
	propAmount        = "Amount"
	propType          = "Type"
	propDate          = "Date"
	propCategory      = "Category"
	propFrom          = "From Account"
	propTo            = "To Account"
	propTags          = "Tags"
	propInvestment    = "Investment"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type:      notionapi.ObjectTypeText,
		Text:      &notionapi.Text{Content: s},
		PlainText: s,
	}}
}

// TransactionProperties maps a ledger row onto the mirror database columns.
// accountNames resolves account IDs to display names; unknown IDs are written
// as-is.
func TransactionProperties(tx *domain.Transaction, accountNames map[string]string) notionapi.Properties {
	title := tx.Description
	if title == "" {
		title = tx.CategoryLabel()
	}
	occurred := notionapi.Date(tx.OccurredAt)

	props := notionapi.Properties{
		propTitle:         notionapi.TitleProperty{Title: richText(title)},
		propTransactionID: notionapi.RichTextProperty{RichText: richText(tx.ID)},
		propAmount:        notionapi.NumberProperty{Number: tx.Amount.InexactFloat64()},
		propType:          notionapi.SelectProperty{Select: notionapi.Option{Name: string(tx.Kind)}},
		propDate:          notionapi.DateProperty{Date: &notionapi.DateObject{Start: &occurred}},
		propCategory:      notionapi.SelectProperty{Select: notionapi.Option{Name: tx.CategoryLabel()}},
	}

	account := func(id string) string {
		if name, ok := accountNames[id]; ok {
			return name
		}
		return id
	}
	if tx.FromAccountID != "" {
		props[propFrom] = notionapi.RichTextProperty{RichText: richText(account(tx.FromAccountID))}
	}
	if tx.ToAccountID != "" {
		props[propTo] = notionapi.RichTextProperty{RichText: richText(account(tx.ToAccountID))}
	}

	if tags := tx.Metadata.Tags(); len(tags) > 0 {
		opts := make([]notionapi.Option, 0, len(tags))
		for _, tag := range tags {
			// Notion rejects commas in select option names.
			opts = append(opts, notionapi.Option{Name: strings.ReplaceAll(tag, ",", " ")})
		}
		props[propTags] = notionapi.MultiSelectProperty{MultiSelect: opts}
	}
	if tx.Metadata.InvestmentLinked() {
		inv := tx.Metadata.Investment
		props[propInvestment] = notionapi.RichTextProperty{
			RichText: richText(inv.InvestmentID + " (" + string(inv.Action) + ")"),
		}
	}
	return props
}

// plainText reads the text of a title or rich text property. Pages decoded
// from the API carry pointer properties, pages built locally carry values.
func plainText(p notionapi.Property) string {
	var parts []notionapi.RichText
	switch v := p.(type) {
	case *notionapi.RichTextProperty:
		parts = v.RichText
	case notionapi.RichTextProperty:
		parts = v.RichText
	case *notionapi.TitleProperty:
		parts = v.Title
	case notionapi.TitleProperty:
		parts = v.Title
	}
	var b strings.Builder
	for _, rt := range parts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func number(p notionapi.Property) (float64, bool) {
	switch v := p.(type) {
	case *notionapi.NumberProperty:
		return v.Number, true
	case notionapi.NumberProperty:
		return v.Number, true
	}
	return 0, false
}

func transactionID(page notionapi.Page) string {
	return plainText(page.Properties[propTransactionID])
}

// amountDrifted reports whether the page's amount was edited away from the
// ledger value.
func amountDrifted(page notionapi.Page, amount decimal.Decimal) bool {
	n, ok := number(page.Properties[propAmount])
	if !ok {
		return true
	}
	return n != amount.InexactFloat64()
}
