package notifx

import (
	"bytes"
	htmltemplate "html/template"
	"io"
	"strings"
	"sync"
	texttemplate "text/template"
)

type renderer interface {
	Execute(w io.Writer, data any) error
}

// TemplateRegistry renders named message bodies. Names ending in ".html" are
// parsed with html/template so data is escaped; the rest use text/template.
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates map[string]renderer
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{templates: make(map[string]renderer)}
}

// Register parses body and stores it under name, replacing any previous one.
func (r *TemplateRegistry) Register(name, body string) error {
	var (
		t   renderer
		err error
	)
	if strings.HasSuffix(name, ".html") {
		t, err = htmltemplate.New(name).Option("missingkey=error").Parse(body)
	} else {
		t, err = texttemplate.New(name).Option("missingkey=error").Parse(body)
	}
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
	}

	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()
	return nil
}

func (r *TemplateRegistry) Render(name string, data any) (string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return "", notifxErrors.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}
	return buf.String(), nil
}
