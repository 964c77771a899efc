package attributes

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// PluginName is the name used in exclude_plugins and logs.
const PluginName = "attributes"

// Plugin generates category and tag pages and provides the attribute_links
// and date_to_html_string template functions.
type Plugin struct {
	plugin.BasePlugin
}

// NewPlugin creates the attribute page generator.
func NewPlugin() *Plugin { return &Plugin{} }

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        PluginName,
		Version:     "v0.2.4",
		Type:        plugin.PluginTypeGenerator,
		Priority:    plugin.PriorityLow,
		Description: "Category and tag index pages with Atom feeds",
	}
}

// Generate registers the pages for every category, then every tag.
func (p *Plugin) Generate(ctx context.Context, pc *plugin.PluginContext) error {
	w := NewWriter(pc.Site, pc.Logger)
	for _, kind := range []Kind{Category, Tag} {
		if err := ctx.Err(); err != nil {
			return err
		}
		var names []string
		if kind == Category {
			names = pc.Site.CategoryNames()
		} else {
			names = pc.Site.TagNames()
		}
		if _, err := w.WriteIndexes(kind, names); err != nil {
			return err
		}
	}
	return nil
}

// Filters implements plugin.FilterProvider. The base directories are read
// from cfg when the function is called.
func (p *Plugin) Filters(cfg *config.Config) map[string]any {
	return map[string]any{
		"attribute_links": func(attrs any, kind string) (string, error) {
			k, err := ParseKind(kind)
			if err != nil {
				return "", err
			}
			list, err := toStrings(attrs)
			if err != nil {
				return "", err
			}
			baseDir := ""
			if cfg != nil {
				baseDir = cfg.StringOr(k.DirKey(), "")
			}
			return AttributeLinks(list, k, baseDir), nil
		},
		"date_to_html_string": func(t time.Time) string {
			return DateToHTMLString(t)
		},
	}
}

// toStrings accepts the list shapes templates hand over: post attributes
// are []string, front matter lists are []any.
func toStrings(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		return []string{val}, nil
	default:
		return nil, fmt.Errorf("attribute_links: unsupported attribute list %T", v)
	}
}
