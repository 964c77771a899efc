package attributes

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// AttributeLinks renders sorted anchor tags for attrs, joined by ", ".
// baseDir is the configured <kind>_dir; empty selects the default.
func AttributeLinks(attrs []string, kind Kind, baseDir string) string {
	sorted := append([]string(nil), attrs...)
	sort.Strings(sorted)

	links := make([]string, 0, len(sorted))
	for _, attr := range sorted {
		dir := ResolveDir(baseDir, kind, attr)
		if !strings.HasPrefix(dir, "/") {
			dir = "/" + dir
		}
		links = append(links, fmt.Sprintf("<a class='%s' href='%s/'>%s</a>", kind, dir, attr))
	}
	return strings.Join(links, ", ")
}

// DateToHTMLString renders month, day and year spans. The year is padded to
// four digits and the trailing space is part of the output.
func DateToHTMLString(t time.Time) string {
	return fmt.Sprintf(`<span class="month">%s</span> <span class="day">%02d</span> <span class="year">%04d</span> `,
		strings.ToUpper(t.Format("Jan")), t.Day(), t.Year())
}
