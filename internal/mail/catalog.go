package mail

import (
	"bytes"
	_ "embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"gopkg.in/yaml.v3"
)

// Message kinds known to the catalog.
const (
	KindReminder = "reminder"
	KindAlert    = "alert"
)

//go:embed messages.yaml
var defaultCatalog []byte

// TemplateData is the input to every catalog template.
type TemplateData struct {
	RecipientName string
	PatientName   string
	AlertType     string
}

// Rendered is one catalog entry filled in for a recipient.
type Rendered struct {
	Notification string
	Subject      string
	HTMLBody     string
}

type catalogEntry struct {
	Notification string `yaml:"notification"`
	Subject      string `yaml:"subject"`
	Body         string `yaml:"body"`
}

type compiledEntry struct {
	notification *texttemplate.Template
	subject      *texttemplate.Template
	body         *htmltemplate.Template
}

// Catalog renders the in-app and email text for each message kind.
type Catalog struct {
	entries map[string]compiledEntry
}

// DefaultCatalog parses the embedded message catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog parses a YAML document mapping kind to notification, subject and body
// templates.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]catalogEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]compiledEntry, len(raw))}
	for kind, entry := range raw {
		notification, err := texttemplate.New(kind + ".notification").Option("missingkey=error").Parse(entry.Notification)
		if err != nil {
			return nil, fmt.Errorf("%s notification: %w", kind, err)
		}
		subject, err := texttemplate.New(kind + ".subject").Option("missingkey=error").Parse(entry.Subject)
		if err != nil {
			return nil, fmt.Errorf("%s subject: %w", kind, err)
		}
		body, err := htmltemplate.New(kind + ".body").Parse(entry.Body)
		if err != nil {
			return nil, fmt.Errorf("%s body: %w", kind, err)
		}
		c.entries[kind] = compiledEntry{notification: notification, subject: subject, body: body}
	}
	return c, nil
}

// Render fills in the templates of kind. The HTML body escapes its data.
func (c *Catalog) Render(kind string, data TemplateData) (Rendered, error) {
	entry, ok := c.entries[kind]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown message kind %q", kind)
	}

	var notification, subject, body bytes.Buffer
	if err := entry.notification.Execute(&notification, data); err != nil {
		return Rendered{}, err
	}
	if err := entry.subject.Execute(&subject, data); err != nil {
		return Rendered{}, err
	}
	if err := entry.body.Execute(&body, data); err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Notification: strings.TrimSpace(notification.String()),
		Subject:      strings.TrimSpace(subject.String()),
		HTMLBody:     body.String(),
	}, nil
}
