package seo

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var sharePageTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="{{.Meta.Lang}}" dir="{{.Dir}}">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Meta.Title}}</title>
<meta name="description" content="{{.Meta.Description}}">
<meta name="keywords" content="{{.Keywords}}">
<meta property="og:type" content="website">
<meta property="og:title" content="{{.Meta.OGTitle}}">
<meta property="og:description" content="{{.Meta.OGDescription}}">
{{if .Meta.OGImage}}<meta property="og:image" content="{{.Meta.OGImage}}">
<meta name="twitter:card" content="summary_large_image">{{end}}
{{if .Meta.Canonical}}<link rel="canonical" href="{{.Meta.Canonical}}">
<meta property="og:url" content="{{.Meta.Canonical}}">{{end}}
<meta http-equiv="refresh" content="0; url={{.RedirectURL}}">
</head>
<body>
<p><a href="{{.RedirectURL}}">{{.Meta.OGTitle}}</a></p>
<script>window.location.replace({{.RedirectURL}});</script>
</body>
</html>
`))

// SharePage 描述短链接落地页：爬虫读取 Open Graph 标签，浏览器立即跳转到查看页。
type SharePage struct {
	Meta        Metadata
	Dir         string
	RedirectURL string
}

// Render 输出落地页 HTML。
func (p SharePage) Render() ([]byte, error) {
	if p.RedirectURL == "" {
		return nil, fmt.Errorf("share page redirect url is empty")
	}
	if p.Dir == "" {
		p.Dir = "ltr"
	}
	var buf bytes.Buffer
	err := sharePageTemplate.Execute(&buf, struct {
		SharePage
		Keywords string
	}{p, strings.Join(p.Meta.Keywords, ", ")})
	if err != nil {
		return nil, fmt.Errorf("execute share page template: %w", err)
	}
	return buf.Bytes(), nil
}
