package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	VerifyEmail = "verify_email"
	LoginAlert  = "login_alert"
)

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	Type           string `json:"Type"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	LogoURL     string `json:"LogoURL"`
	SupportURL  string `json:"SupportURL"`

	VerifyURL     string    `json:"VerifyURL"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`

	IP        string `json:"IP"`
	UserAgent string `json:"UserAgent"`
	Location  string `json:"Location"`
	Time      string `json:"Time"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

var funcMap = htmpl.FuncMap{
	"now":        func() time.Time { return time.Now().UTC() },
	"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
	"upper":      strings.ToUpper,
}

// Subject returns the subject line for a template name.
func Subject(name string) string {
	switch strings.ToLower(name) {
	case VerifyEmail:
		return "Verify your email address"
	case LoginAlert:
		return "New login to your account"
	default:
		return "Notification"
	}
}

// RenderHTML renders <name>.html.tmpl from the embedded FS.
func RenderHTML(name string, data any) (string, error) {
	filename := name + ".html.tmpl"
	tpl, err := htmpl.New(filename).Funcs(funcMap).ParseFS(FS, filename)
	if err != nil {
		return "", fmt.Errorf("parse html %q: %w", filename, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}
