package core

import (
	"bytes"
	"io/fs"
	"log"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

var (
	templates     tmplCache
	tmplInit      sync.Once
	templatesRoot = "assets/templates/email"
)

type (
	tmplCache map[string]*texttmpl.Template // {name: *Template}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render resolves the message's final text content, executing its template
// (loaded from tmplFS) if one is set.
func (m *EmailMessage) Render(conf *Config, tmplFS fs.FS) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(func() { parseTemplates(tmplFS) }) // only execute once during first send

	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, ContextData{FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

func parseTemplates(tmplFS fs.FS) {
	templates = make(tmplCache)

	fps, err := fs.Glob(tmplFS, path.Join(templatesRoot, "*.txt"))
	if err != nil {
		log.Printf("core.parseTemplates: %v", err)
		return
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, ".txt")
		tmpl, err := texttmpl.ParseFS(tmplFS, path.Join(templatesRoot, "_base.txt"), fp)
		if err != nil {
			log.Printf("core.parseTemplates: %v", err)
			continue
		}
		templates[name] = tmpl.Option("missingkey=error")
	}
}
