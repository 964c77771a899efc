// Package filters provides the general purpose template functions feed and
// page templates rely on.
package filters

import (
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

var (
	cdataReplacer = strings.NewReplacer("<![CDATA[", "&lt;![CDATA[", "]]>", "]]&gt;")
	xmlReplacer   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

	// Root-relative href and src attribute values. The opening delimiter
	// may be a double quote, a single quote or a pipe.
	rootRelativeAttr = regexp.MustCompile(`(\s+(href|src)\s*=\s*["|']{1})(/[^"'>]*)`)
)

// CDATAEscape neutralises CDATA delimiters so content can be embedded in a
// CDATA section.
func CDATAEscape(input string) string {
	return cdataReplacer.Replace(input)
}

// ExpandURLs prefixes url onto root-relative href and src values in input.
func ExpandURLs(input, url string) string {
	if url == "" {
		return input
	}
	matches := rootRelativeAttr.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		// m[2]:m[3] is the attribute prefix, m[6]:m[7] the path.
		sb.WriteString(input[last:m[3]])
		sb.WriteString(url)
		sb.WriteString(input[m[6]:m[7]])
		last = m[1]
	}
	sb.WriteString(input[last:])
	return sb.String()
}

// XMLEscape escapes the five XML special characters.
func XMLEscape(input string) string {
	return xmlReplacer.Replace(input)
}

// DateToXMLSchema formats t as RFC 3339.
func DateToXMLSchema(t time.Time) string {
	return t.Format(time.RFC3339)
}

// DateToString formats t as "07 Mar 2024".
func DateToString(t time.Time) string {
	return t.Format("02 Jan 2006")
}

// PluginName is the name used in exclude_plugins and logs.
const PluginName = "filters"

// Plugin exposes the standard filters to templates.
type Plugin struct {
	plugin.BasePlugin
}

// NewPlugin creates the standard filter plugin.
func NewPlugin() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        PluginName,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeFilter,
		Description: "cdata_escape, expand_urls, xml_escape and date formatting",
	}
}

// Filters implements plugin.FilterProvider.
func (p *Plugin) Filters(*config.Config) map[string]any {
	return map[string]any{
		"cdata_escape": CDATAEscape,
		"expand_urls": func(input string, url ...string) string {
			if len(url) == 0 {
				return input
			}
			return ExpandURLs(input, url[0])
		},
		"xml_escape":        XMLEscape,
		"date_to_xmlschema": DateToXMLSchema,
		"date_to_string":    DateToString,
	}
}
