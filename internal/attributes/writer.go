package attributes

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/site"
)

// Writer registers attribute pages on a site.
type Writer struct {
	site   *site.Site
	logger *slog.Logger
}

// NewWriter creates a writer for s.
func NewWriter(s *site.Site, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{site: s, logger: logger}
}

// WriteIndexes registers the index page and feed of every attribute and
// returns how many pages were added. It fails without registering anything
// when the <kind>_index layout is missing.
func (w *Writer) WriteIndexes(kind Kind, attributes []string) (int, error) {
	layout := kind.IndexLayout()
	if !w.site.HasLayout(layout) {
		return 0, errors.ConfigError(fmt.Sprintf("No '%s' layout found", layout)).
			WithContext("layout", layout).
			WithContext("kind", string(kind)).
			Build()
	}

	baseDir := ""
	if w.site.Config != nil {
		baseDir = w.site.Config.StringOr(kind.DirKey(), "")
	}

	added := 0
	for _, attribute := range attributes {
		n, err := w.writeIndex(kind, baseDir, attribute)
		added += n
		if err != nil {
			return added, err
		}
	}
	w.logger.Debug("Registered attribute pages", logfields.Kind(string(kind)), logfields.Count(added))
	return added, nil
}

func (w *Writer) writeIndex(kind Kind, baseDir, attribute string) (int, error) {
	dir := ResolveDir(baseDir, kind, attribute)
	added := 0
	for _, v := range []Variant{Index, Feed} {
		g, err := BuildPage(v, w.site, dir, kind, attribute)
		if err != nil {
			return added, err
		}
		if !g.Render {
			w.logger.Debug("No template for attribute page, skipping",
				logfields.Kind(string(kind)), logfields.Attribute(attribute), slog.String("variant", v.Name))
			continue
		}
		w.site.AddPage(g.Page)
		added++
	}
	return added, nil
}
