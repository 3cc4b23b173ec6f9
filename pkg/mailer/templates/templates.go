// Package templates renders the transactional emails from embedded files.
// Each email is a triple <name>.subject.tmpl, <name>.text.tmpl and
// <name>.html.tmpl; the HTML part goes through html/template escaping.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Welcome is sent once a user has been registered.
const Welcome = "welcome"

// EmailData is the data contract shared by the publisher and the templates.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	SupportURL  string `json:"SupportURL"`

	RegisteredAt time.Time `json:"RegisteredAt"`
}

// ToMap flattens d into the generic map carried by mailer.EmailJob.
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

var (
	loadOnce sync.Once
	textSet  *texttpl.Template
	htmlSet  *htmpl.Template
	loadErr  error
)

func funcs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": fallback,
	}
}

func load() {
	textSet, loadErr = texttpl.New("text").Funcs(funcs()).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl")
	if loadErr != nil {
		return
	}
	htmlSet, loadErr = htmpl.New("html").Funcs(funcs()).ParseFS(FS, "*.html.tmpl")
}

// Render executes the three parts of the named email against data.
func Render(name string, data any) (subject, text, html string, err error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", "", "", fmt.Errorf("load templates: %w", loadErr)
	}

	var buf bytes.Buffer
	if err = textSet.ExecuteTemplate(&buf, name+".subject.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err = textSet.ExecuteTemplate(&buf, name+".text.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	text = buf.String()

	buf.Reset()
	if err = htmlSet.ExecuteTemplate(&buf, name+".html.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	return subject, text, buf.String(), nil
}

// fallback backs the "default" pipe: {{ .Value | default "Fallback" }}.
// Blank strings and zero values count as missing.
func fallback(def any, value any) any {
	if value == nil {
		return def
	}
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	}
	if reflect.ValueOf(value).IsZero() {
		return def
	}
	return value
}
