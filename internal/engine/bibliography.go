package engine

import (
	"fmt"
	"html"
	"strings"

	"github.com/alnah/go-livepreview/internal/yamlutil"
)

// entry is one bibliography record in Hayagriva YAML form.
type entry struct {
	Key     string
	Type    string
	Title   string
	Authors []string
	Date    string
	Journal string
	Volume  string
	Issue   string
	Pages   string
	DOI     string
	URL     string
}

// bibliography holds the records of a bibliography file in file order.
type bibliography struct {
	name    string
	entries []entry
	index   map[string]int
}

// parseBibliography decodes a Hayagriva-style YAML file: a mapping from
// citation key to record fields.
func parseBibliography(name string, data []byte) (*bibliography, error) {
	pairs, err := yamlutil.UnmarshalOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bibliography %s: %v", name, err)
	}

	b := &bibliography{name: name, index: make(map[string]int, len(pairs))}
	for _, p := range pairs {
		fields, ok := p.Value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("failed to parse bibliography %s: entry %q is not a mapping", name, p.Key)
		}
		e := entry{
			Key:     p.Key,
			Type:    scalar(fields["type"]),
			Title:   scalar(fields["title"]),
			Authors: list(fields["author"]),
			Date:    scalar(fields["date"]),
			Journal: scalar(fields["journal"]),
			Volume:  scalar(fields["volume"]),
			Issue:   scalar(fields["issue"]),
			Pages:   scalar(fields["pages"]),
			DOI:     scalar(fields["doi"]),
			URL:     scalar(fields["url"]),
		}
		if e.Journal == "" {
			// Hayagriva nests the venue under parent.
			if parent, ok := fields["parent"].(map[string]any); ok {
				e.Journal = scalar(parent["title"])
			}
		}
		b.index[p.Key] = len(b.entries)
		b.entries = append(b.entries, e)
	}
	return b, nil
}

func (b *bibliography) lookup(key string) (entry, bool) {
	if b == nil {
		return entry{}, false
	}
	i, ok := b.index[key]
	if !ok {
		return entry{}, false
	}
	return b.entries[i], true
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	default:
		return fmt.Sprint(x)
	}
}

func list(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := scalar(x); s != "" {
			return []string{s}
		}
		return nil
	}
}

// citations numbers cited keys by first use.
type citations struct {
	order []string
	num   map[string]int
}

func newCitations() *citations {
	return &citations{num: map[string]int{}}
}

// cite returns the number of key, assigning the next one on first use.
func (c *citations) cite(key string) int {
	if n, ok := c.num[key]; ok {
		return n
	}
	c.order = append(c.order, key)
	c.num[key] = len(c.order)
	return len(c.order)
}

// references returns the entries to list: cited ones in citation order,
// followed by every uncited entry when full is set.
func (b *bibliography) references(c *citations, full bool) []entry {
	var out []entry
	for _, key := range c.order {
		if e, ok := b.lookup(key); ok {
			out = append(out, e)
		}
	}
	if full {
		rest := make([]entry, 0, len(b.entries))
		for _, e := range b.entries {
			if _, cited := c.num[e.Key]; !cited {
				rest = append(rest, e)
			}
		}
		out = append(out, rest...)
	}
	return out
}

// referenceList renders the reference list in IEEE style.
func (b *bibliography) referenceList(refs []entry, c *citations) string {
	var sb strings.Builder
	sb.WriteString(`<ol class="bibliography">`)
	for _, e := range refs {
		n, ok := c.num[e.Key]
		label := ""
		if ok {
			label = fmt.Sprintf("[%d] ", n)
		}
		fmt.Fprintf(&sb, `<li id="bib-%s">%s%s</li>`, html.EscapeString(e.Key), label, formatEntry(e))
	}
	sb.WriteString(`</ol>`)
	return sb.String()
}

func formatEntry(e entry) string {
	head := html.EscapeString(joinAuthors(e.Authors))
	if e.Title != "" {
		if head != "" {
			head += ", "
		}
		head += "&#8220;" + html.EscapeString(e.Title) + ",&#8221;"
	}

	var parts []string
	if e.Journal != "" {
		parts = append(parts, "<em>"+html.EscapeString(e.Journal)+"</em>")
	}
	if e.Volume != "" {
		v := "vol. " + html.EscapeString(e.Volume)
		if e.Issue != "" {
			v += ", no. " + html.EscapeString(e.Issue)
		}
		parts = append(parts, v)
	}
	if e.Pages != "" {
		parts = append(parts, "pp. "+html.EscapeString(e.Pages))
	}
	if e.Date != "" {
		parts = append(parts, html.EscapeString(e.Date))
	}

	out := head
	if tail := strings.Join(parts, ", "); tail != "" {
		if out != "" {
			out += " "
		}
		out += tail + "."
	}
	switch {
	case e.DOI != "":
		out += " doi: " + html.EscapeString(e.DOI) + "."
	case e.URL != "":
		u := html.EscapeString(e.URL)
		if strings.HasPrefix(e.URL, "https://") || strings.HasPrefix(e.URL, "http://") {
			u = `<a href="` + u + `">` + u + `</a>`
		}
		out += " [Online]. Available: " + u
	}
	return strings.TrimSpace(out)
}

func joinAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", and " + authors[len(authors)-1]
	}
}
