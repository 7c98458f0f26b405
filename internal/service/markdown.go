package service

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const defaultPreviewRunes = 200

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown 将 Markdown 转换为经过清洗的 HTML。
func RenderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return sanitizer.Sanitize(buf.String()), nil
}

// ExtractPreview 从正文中提取纯文本摘要，跳过首个标题，超出 limit 个字符时截断。
func ExtractPreview(content string, limit int) string {
	if limit <= 0 {
		limit = defaultPreviewRunes
	}
	rendered, err := RenderMarkdown(content)
	if err != nil {
		return truncateRunes(strings.TrimSpace(content), limit)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return truncateRunes(strings.TrimSpace(content), limit)
	}

	parts := make([]string, 0)
	doc.Find("p, li, blockquote, td").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("li, blockquote, td").Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		parts = append(parts, strings.Join(strings.Fields(doc.Text()), " "))
	}

	preview := strings.TrimSpace(strings.Join(parts, " "))
	if len([]rune(preview)) > limit {
		return strings.TrimSpace(truncateRunes(preview, limit)) + "…"
	}
	return preview
}

func truncateRunes(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	return string(runes[:limit])
}
