package site

import "fmt"

// Template data exposed to pages, posts and layouts:
//
//	.site     configuration keys plus time, posts, pages, categories and tags
//	.page     the page or post being rendered
//	.content  the rendered content wrapped by a layout
//	.layout   front matter of the layout being executed

// Vars returns the page's template data.
func (p *Page) Vars() map[string]any {
	v := copyMap(p.Data)
	v["url"] = p.URL()
	v["name"] = p.Name
	v["dir"] = "/" + p.Dir
	v["path"] = p.OutputPath()
	return v
}

// Vars returns the post's template data. content is the post body without
// layouts, empty until the body was rendered.
func (p *Post) Vars() map[string]any {
	v := copyMap(p.Data)
	v["title"] = p.Title()
	v["url"] = p.URL()
	v["id"] = p.URL()
	v["slug"] = p.Slug
	v["date"] = p.Date
	v["categories"] = p.Categories
	v["tags"] = p.Tags
	v["content"] = p.Body
	return v
}

// Vars returns the .site template data.
func (s *Site) Vars() map[string]any {
	v := map[string]any{}
	if s.Config != nil {
		v = copyMap(s.Config.Raw)
	}
	v["time"] = s.Time

	byPost := make(map[*Post]map[string]any, len(s.Posts))
	posts := make([]map[string]any, 0, len(s.Posts))
	for _, p := range s.Posts {
		pv := p.Vars()
		byPost[p] = pv
		posts = append(posts, pv)
	}
	v["posts"] = posts

	pages := make([]map[string]any, 0, len(s.Pages))
	for _, p := range s.Pages {
		pages = append(pages, p.Vars())
	}
	v["pages"] = pages

	group := func(m map[string][]*Post) map[string][]map[string]any {
		out := make(map[string][]map[string]any, len(m))
		for attr, ps := range m {
			for _, p := range ps {
				out[attr] = append(out[attr], byPost[p])
			}
		}
		return out
	}
	v["categories"] = group(s.Categories())
	v["tags"] = group(s.Tags())
	return v
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+8)
	for k, val := range in {
		out[k] = val
	}
	return out
}

func toString(v any) string {
	return fmt.Sprint(v)
}
