package notify

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/articleflow/internal/db"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplatesYAML []byte

// TemplateSpec 单个通知模板的原始定义
type TemplateSpec struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type compiledTemplate struct {
	title *template.Template
	body  *template.Template
}

// Templates 按通知类型索引的已编译模板
type Templates struct {
	byKind map[db.NotificationKind]compiledTemplate
}

// DefaultTemplates 返回内置模板
func DefaultTemplates() (*Templates, error) {
	return LoadTemplates(defaultTemplatesYAML)
}

// LoadTemplates 解析 YAML：顶层键为通知类型，值包含 title/body 两个 text/template。
func LoadTemplates(raw []byte) (*Templates, error) {
	var specs map[string]TemplateSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parse notification templates: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("parse notification templates: no templates defined")
	}

	templates := &Templates{byKind: make(map[db.NotificationKind]compiledTemplate, len(specs))}
	for name, spec := range specs {
		kind := db.NotificationKind(strings.TrimSpace(name))
		title, err := template.New(name + ".title").Parse(spec.Title)
		if err != nil {
			return nil, fmt.Errorf("parse %s title: %w", name, err)
		}
		body, err := template.New(name + ".body").Parse(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", name, err)
		}
		templates.byKind[kind] = compiledTemplate{title: title, body: body}
	}
	return templates, nil
}

// Render 渲染指定类型的标题与正文
func (t *Templates) Render(kind db.NotificationKind, payload map[string]interface{}) (string, string, error) {
	compiled, ok := t.byKind[kind]
	if !ok {
		return "", "", fmt.Errorf("no notification template for kind %q", kind)
	}

	var title, body bytes.Buffer
	if err := compiled.title.Execute(&title, payload); err != nil {
		return "", "", fmt.Errorf("render %s title: %w", kind, err)
	}
	if err := compiled.body.Execute(&body, payload); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return strings.TrimSpace(title.String()), strings.TrimSpace(body.String()), nil
}
