// Package view renders the printable HTML documents.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edi-sejahtera/sejahtera/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"rupiah":    FormatRupiah,
		"longDate":  LongDate,
		"terbilang": func(d decimal.Decimal) string { return Terbilang(d.Round(0).IntPart()) },
		"orDash": func(s string) string {
			if s == "" {
				return "-"
			}
			return s
		},
		"year": func(t time.Time) int { return t.Year() },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "layouts/*.html", "documents/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template and returns the resulting HTML.
func (e *Engine) Render(name string, data any) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
