// Package attributes generates an index page and an Atom feed for every
// category and tag used by the site's posts, and provides the template
// helpers that link to them.
package attributes

import "fmt"

// Kind discriminates category handling from tag handling.
type Kind string

const (
	Category Kind = "category"
	Tag      Kind = "tag"
)

// ParseKind converts a template argument such as "category" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Category, Tag:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown attribute kind %q", s)
	}
}

// DefaultDir is the output base directory used when <kind>_dir is not configured.
func (k Kind) DefaultDir() string {
	switch k {
	case Category:
		return "categories"
	case Tag:
		return "tags"
	default:
		return string(k) + "s"
	}
}

// Title is the capitalised kind, used in the default prefixes.
func (k Kind) Title() string {
	switch k {
	case Category:
		return "Category"
	case Tag:
		return "Tag"
	default:
		return string(k)
	}
}

func (k Kind) String() string { return string(k) }

// DirKey is the config key holding the output base directory.
func (k Kind) DirKey() string { return string(k) + "_dir" }

// TitlePrefixKey is the config key holding the page title prefix.
func (k Kind) TitlePrefixKey() string { return string(k) + "_title_prefix" }

// DescriptionPrefixKey is the config key holding the meta description prefix.
func (k Kind) DescriptionPrefixKey() string { return string(k) + "_meta_description_prefix" }

// DefaultPrefix is "Category: " or "Tag: ".
func (k Kind) DefaultPrefix() string { return k.Title() + ": " }

// IndexLayout is the layout that must exist before index pages are generated.
func (k Kind) IndexLayout() string { return string(k) + "_index" }
