// Package document implements the course-review TOML model: a parse that keeps
// the original source spans, typed accessors over the known schema, a locator
// for free-text fields and a patch builder that splices edits back into the
// source so untouched content survives byte-for-byte.
package document

import (
	"fmt"
	"strings"
)

// Attribution is the optional name/link/date metadata appended to a patched or
// newly added piece of content. Date has year-month granularity ("2024-05").
type Attribution struct {
	Name string `json:"name"`
	Link string `json:"link"`
	Date string `json:"date"`
}

// block is one raw segment of the source: the root key-value prelude or a
// single [[...]] table, header line included. Lines carry no trailing newline.
type block struct {
	header string // "" for root, else e.g. "sections", "courses.teachers.reviews"
	lines  []string
}

// Item is one entry of a section.
type Item struct {
	blk *block
}

// Section is a titled, ordered list of items.
type Section struct {
	blk   *block
	Items []*Item
}

// Review is one review under a teacher.
type Review struct {
	blk *block
}

// Teacher is a named teacher with an ordered list of reviews.
type Teacher struct {
	blk     *block
	Reviews []*Review
}

// SubCourse is one nested course of a multi-project document. It carries its
// own sections and teachers but never further sub-courses.
type SubCourse struct {
	blk      *block
	Sections []*Section
	Teachers []*Teacher
}

// Document is the parsed tree. Blocks keep the original text; the typed fields
// index into them.
type Document struct {
	blocks []*block
	root   *block

	Sections   []*Section
	Teachers   []*Teacher
	SubCourses []*SubCourse
}

// NormalizeText unifies line endings and trims surrounding whitespace. The
// same normalization is applied when locating a paragraph and when writing one
// back, so a located-but-unmodified span always re-matches.
func NormalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

// Parse reads course-review TOML into a Document. Unknown table headers are
// kept as opaque blocks so they survive re-serialization, but they are not
// addressable.
func Parse(text string) (*Document, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	// Split("a\n") yields a trailing "" which Print re-joins into the final
	// newline, keeping the round trip exact.

	doc := &Document{}
	cur := &block{header: ""}
	doc.root = cur
	doc.blocks = append(doc.blocks, cur)

	// open holds the delimiter of an unterminated multiline string; while set,
	// a [[...]]-looking line is field content, not a table header.
	open := ""
	for _, line := range lines {
		if open != "" {
			cur.lines = append(cur.lines, line)
			if closesMultiline(line, open) {
				open = ""
			}
			continue
		}
		if h, ok := tableHeader(line); ok {
			cur = &block{header: h, lines: []string{line}}
			doc.blocks = append(doc.blocks, cur)
			continue
		}
		cur.lines = append(cur.lines, line)
		open = multilineOpener(line)
	}

	if err := doc.index(); err != nil {
		return nil, err
	}
	return doc, nil
}

// tableHeader reports whether the line opens an array-of-tables block and
// returns its dotted path.
func tableHeader(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "[[") || !strings.HasSuffix(t, "]]") {
		return "", false
	}
	name := strings.TrimSpace(t[2 : len(t)-2])
	if name == "" {
		return "", false
	}
	return name, true
}

// index rebuilds the typed tree from the block list. Called after parsing and
// after any structural patch.
func (d *Document) index() error {
	d.Sections = nil
	d.Teachers = nil
	d.SubCourses = nil

	var curSection *Section
	var curTeacher *Teacher
	var curCourse *SubCourse

	for _, b := range d.blocks {
		switch b.header {
		case "":
			// root prelude
		case "sections":
			curSection = &Section{blk: b}
			curTeacher = nil
			curCourse = nil
			d.Sections = append(d.Sections, curSection)
		case "sections.items":
			if curSection == nil || curCourse != nil {
				return fmt.Errorf("document: [[sections.items]] outside a [[sections]] table")
			}
			curSection.Items = append(curSection.Items, &Item{blk: b})
		case "lecturers":
			curTeacher = &Teacher{blk: b}
			curSection = nil
			curCourse = nil
			d.Teachers = append(d.Teachers, curTeacher)
		case "lecturers.reviews":
			if curTeacher == nil || curCourse != nil {
				return fmt.Errorf("document: [[lecturers.reviews]] outside a [[lecturers]] table")
			}
			curTeacher.Reviews = append(curTeacher.Reviews, &Review{blk: b})
		case "courses":
			curCourse = &SubCourse{blk: b}
			curSection = nil
			curTeacher = nil
			d.SubCourses = append(d.SubCourses, curCourse)
		case "courses.sections":
			if curCourse == nil {
				return fmt.Errorf("document: [[courses.sections]] outside a [[courses]] table")
			}
			curSection = &Section{blk: b}
			curTeacher = nil
			curCourse.Sections = append(curCourse.Sections, curSection)
		case "courses.sections.items":
			if curCourse == nil || curSection == nil {
				return fmt.Errorf("document: [[courses.sections.items]] outside a [[courses.sections]] table")
			}
			curSection.Items = append(curSection.Items, &Item{blk: b})
		case "courses.teachers":
			if curCourse == nil {
				return fmt.Errorf("document: [[courses.teachers]] outside a [[courses]] table")
			}
			curTeacher = &Teacher{blk: b}
			curSection = nil
			curCourse.Teachers = append(curCourse.Teachers, curTeacher)
		case "courses.teachers.reviews":
			if curCourse == nil || curTeacher == nil {
				return fmt.Errorf("document: [[courses.teachers.reviews]] outside a [[courses.teachers]] table")
			}
			curTeacher.Reviews = append(curTeacher.Reviews, &Review{blk: b})
		default:
			// Unknown table: preserved verbatim, not addressable.
		}
	}
	return nil
}

// Print re-emits the document. With no patches applied the output equals the
// parsed input after line-ending unification only.
func (d *Document) Print() string {
	var sb strings.Builder
	for _, b := range d.blocks {
		for _, line := range b.lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	// Parse keeps the empty sentinel produced by splitting a trailing newline,
	// so trimming the one newline added for it restores the original ending.
	return strings.TrimSuffix(sb.String(), "\n")
}

// --- typed accessors over the root prelude ---

func (d *Document) CourseCode() string  { return d.root.stringValue("course_code") }
func (d *Document) CourseName() string  { return d.root.stringValue("course_name") }
func (d *Document) RepoType() string    { return d.root.stringValue("repo_type") }
func (d *Document) Description() string { return d.root.stringValue("description") }

// MultiProject reports whether the document uses the nested sub-course layout.
func (d *Document) MultiProject() bool { return d.RepoType() == "multi-project" }

func (s *Section) Title() string  { return s.blk.stringValue("title") }
func (i *Item) Content() string   { return i.blk.stringValue("content") }
func (t *Teacher) Name() string   { return t.blk.stringValue("name") }
func (r *Review) Content() string { return r.blk.stringValue("content") }
func (c *SubCourse) Name() string { return c.blk.stringValue("name") }
func (c *SubCourse) Code() string { return c.blk.stringValue("code") }

// Authors returns the item's attribution collection in stored order.
func (i *Item) Authors() []Attribution { return i.blk.authors() }

// Authors returns the review's attribution collection in stored order.
func (r *Review) Authors() []Attribution { return r.blk.authors() }

func (b *block) authors() []Attribution {
	e, ok := b.findEntry("author")
	if !ok {
		return nil
	}
	return decodeAuthors(b.entryValueText(e))
}

// stringValue decodes the named key of the block as a string, "" when absent.
func (b *block) stringValue(key string) string {
	e, ok := b.findEntry(key)
	if !ok {
		return ""
	}
	v, err := decodeStringValue(b.entryValueText(e))
	if err != nil {
		return ""
	}
	return v
}
