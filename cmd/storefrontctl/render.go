package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ettle/strcase"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	storefront "github.com/goliatone/go-storefront/components/storefront"
)

const (
	maxColumns   = 6
	maxCellWidth = 32
)

var moneyFields = map[string]bool{
	"precio":   true,
	"monto":    true,
	"total":    true,
	"subtotal": true,
}

// columnsFor picks the id field first, then the remaining keys in order.
func columnsFor(items []storefront.Record, idField string) []string {
	seen := map[string]bool{idField: true}
	var keys []string
	for _, rec := range items {
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	columns := append([]string{idField}, keys...)
	if len(columns) > maxColumns {
		columns = columns[:maxColumns]
	}
	return columns
}

func columnTitle(key string) string {
	return strcase.ToCase(key, strcase.UpperCase, ' ')
}

func formatCell(key string, rec storefront.Record) string {
	value, ok := rec[key]
	if !ok || value == nil {
		return "-"
	}
	switch v := value.(type) {
	case bool:
		if v {
			return "yes"
		}
		return "no"
	}
	text := rec.String(key)
	if moneyFields[key] {
		return formatMoney(text)
	}
	return text
}

// formatMoney renders a decimal string with thousands separators and two
// digits. Unparseable input is returned unchanged.
func formatMoney(raw string) string {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	whole, frac, _ := strings.Cut(amount.StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return raw
	}
	return sign + "$" + humanize.Comma(n) + "." + frac
}

func renderRecords(w io.Writer, items []storefront.Record, idField string) {
	if len(items) == 0 {
		fmt.Fprintln(w, "(no records)")
		return
	}
	columns := columnsFor(items, idField)
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = columnTitle(col)
	}
	rows := make([][]string, len(items))
	for i, rec := range items {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = formatCell(col, rec)
		}
		rows[i] = row
	}
	renderTable(w, header, rows)
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	measure := func(row []string) {
		for i, cell := range row {
			if width := min(runewidth.StringWidth(cell), maxCellWidth); width > widths[i] {
				widths[i] = width
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}
	writeRow := func(row []string) {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = runewidth.FillRight(runewidth.Truncate(cell, maxCellWidth, "…"), widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}

func renderSnapshot(w io.Writer, snap storefront.ListSnapshot, idField string) {
	renderRecords(w, snap.Items, idField)
	fmt.Fprintf(w, "\npage %d/%d · %s records · %d per page\n",
		snap.Page, snap.Pages, humanize.Comma(int64(snap.Total)), snap.PageSize)
	if snap.Error != "" {
		fmt.Fprintf(w, "error: %s\n", snap.Error)
	}
}

func renderBanner(w io.Writer, view storefront.BannerView, width, offset int) {
	if view.State != storefront.BannerVisible || view.Banner == nil {
		fmt.Fprintf(w, "no banner (%s", view.State)
		if view.Reason != storefront.HideNone {
			fmt.Fprintf(w, ": %s", view.Reason)
		}
		fmt.Fprintln(w, ")")
		return
	}
	b := view.Banner
	fmt.Fprintln(w, storefront.MarqueeFrame(b.Title, width, offset))
	if b.Message != "" {
		fmt.Fprintln(w, storefront.MarqueeFrame(b.Message, width, offset))
	}
	if view.HasDeadline {
		fmt.Fprintf(w, "ends in %s\n", view.Countdown)
	}
	if view.CTA != nil {
		fmt.Fprintf(w, "%s: %s\n", view.CTA.Label, view.CTA.Target)
	}
	if !b.CreatedAt.Time.IsZero() {
		fmt.Fprintf(w, "published %s\n", humanize.RelTime(b.CreatedAt.Time, time.Now(), "ago", "from now"))
	}
}

func renderExport(w io.Writer, path string, result storefront.ExportResult) {
	fmt.Fprintf(w, "✓ Saved %s (%s, %d rows across %d sheets)\n",
		path, humanize.Bytes(uint64(len(result.Data))), result.Rows, len(result.Sheets))
}
