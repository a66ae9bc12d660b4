package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/marioigor1982/leco-imoveis-site-simples/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	Asset              func(string) string
	Now                func() time.Time
}

// Funcs returns the helpers shared by every template.
func Funcs(deps Deps) template.FuncMap {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	asset := deps.Asset
	if asset == nil {
		asset = func(name string) string { return "/static/" + name }
	}
	funcs := template.FuncMap{
		"sectionTmpl":    deps.ContentTemplateFor,
		"asset":          asset,
		"formatDate":     uiutil.FormatDate,
		"formatDateTime": uiutil.FormatDateTime,
		"timeAgo":        func(t time.Time) string { return uiutil.FriendlyRelativeTime(t, now()) },
		"thousands":      uiutil.FormatThousands,
		"truncate":       func(s string, n int) string { return uiutil.TruncateWithEllipsis(s, n) },
		"paragraphs":     uiutil.Paragraphs,
		"add":            func(a, b int) int { return a + b },
		"year":           func() int { return now().Year() },
	}

	funcs["dict"] = dict

	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - produced by our own html/template set; values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

// dict builds a map from alternating keys and values so partials can take
// more than one argument.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict expects key/value pairs")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}
