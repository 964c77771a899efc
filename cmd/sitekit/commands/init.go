package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file and starter layouts"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force)
}

// starterFiles are written next to the configuration file. They cover every
// layout the generators require, so a fresh site builds.
var starterFiles = map[string]string{
	"_layouts/default.html": `<!DOCTYPE html>
<html>
<head>
  <title>{{ .page.title }}</title>
  <meta name="description" content="{{ .page.description }}">
</head>
<body>
{{ .content }}
</body>
</html>
`,
	"_layouts/post.html": `---
layout: default
---
<article>
  <h1>{{ .page.title }}</h1>
  <p>{{ date_to_html_string .page.date }}</p>
  <p>{{ attribute_links .page.categories "category" }}</p>
  {{ .content }}
  <p>{{ attribute_links .page.tags "tag" }}</p>
</article>
`,
	"_layouts/category_index.html": `---
layout: default
---
<h1>{{ .page.title }}</h1>
<ul>
{{- range index .site.categories .page.category }}
  <li><a href="{{ .url }}">{{ .title }}</a></li>
{{- end }}
</ul>
`,
	"_layouts/tag_index.html": `---
layout: default
---
<h1>{{ .page.title }}</h1>
<ul>
{{- range index .site.tags .page.tag }}
  <li><a href="{{ .url }}">{{ .title }}</a></li>
{{- end }}
</ul>
`,
	"_includes/custom/category_feed.xml": `---
layout: nil
---
<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>{{ xml_escape .page.title }}</title>
  <id>{{ .site.url }}/{{ .page.feed_url }}</id>
  <updated>{{ date_to_xmlschema .site.time }}</updated>
{{- range index .site.categories .page.category }}
  <entry>
    <title>{{ xml_escape .title }}</title>
    <link href="{{ $.site.url }}{{ .url }}"/>
    <updated>{{ date_to_xmlschema .date }}</updated>
    <content type="html"><![CDATA[{{ cdata_escape (expand_urls .content $.site.url) }}]]></content>
  </entry>
{{- end }}
</feed>
`,
	"index.html": `---
layout: default
title: Home
---
<ul>
{{- range .site.posts }}
  <li>{{ date_to_string .date }} <a href="{{ .url }}">{{ .title }}</a></li>
{{- end }}
</ul>
`,
}

// RunInit writes the configuration file and the starter layouts. Existing
// starter files are only replaced with force.
func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return errors.ConfigError("failed to write configuration").WithCause(err).WithContext("path", configPath).Build()
	}

	root := filepath.Dir(configPath)
	for rel, content := range starterFiles {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(full); err == nil && !force {
			fmt.Printf("Keeping existing %s\n", rel)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return errors.FileSystemError("failed to create directory").WithCause(err).WithContext("path", filepath.Dir(full)).Build()
		}
		// #nosec G306 -- site sources are not secret
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return errors.FileSystemError("failed to write starter file").WithCause(err).WithContext("path", full).Build()
		}
	}
	fmt.Println("initialized successfully")
	return nil
}
