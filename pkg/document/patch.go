package document

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContentDrifted means the addressed field no longer contains the text
	// the caller located. The document is left untouched.
	ErrContentDrifted = errors.New("document: content drifted since location")

	// ErrNodeNotFound means the NodeRef no longer resolves against this
	// snapshot (container renamed or removed).
	ErrNodeNotFound = errors.New("document: node not found")

	// ErrEmptyText rejects empty search or replacement paragraphs.
	ErrEmptyText = errors.New("document: empty paragraph")
)

// Replace swaps the first occurrence of oldText with newText inside the field
// addressed by ref, re-validating against the field's current value first.
// When attr is non-nil it is appended to the field's attribution collection
// (descriptions carry no attribution and ignore it, matching the stored
// schema). Nothing outside the addressed field changes.
func (d *Document) Replace(ref NodeRef, oldText, newText string, attr *Attribution) error {
	sOld := NormalizeText(oldText)
	sNew := NormalizeText(newText)
	if sOld == "" {
		return ErrEmptyText
	}

	blk, key, err := d.resolve(ref)
	if err != nil {
		return err
	}

	e, ok := blk.findEntry(key)
	if !ok {
		return fmt.Errorf("%w: field %q missing at %s", ErrContentDrifted, key, ref.Describe())
	}
	cur, err := decodeStringValue(blk.entryValueText(e))
	if err != nil {
		return fmt.Errorf("document: undecodable %s value: %w", key, err)
	}
	cur = NormalizeText(cur)
	if !strings.Contains(cur, sOld) {
		return fmt.Errorf("%w: old paragraph not present at %s", ErrContentDrifted, ref.Describe())
	}

	patched := strings.Replace(cur, sOld, sNew, 1)
	blk.replaceEntry(e, encodeMultilineEntry(key, patched))

	if attr != nil && ref.Kind != KindDescription {
		blk.appendAuthor(*attr)
	}
	return nil
}

// resolve maps a NodeRef to its backing block and content key against the
// current snapshot.
func (d *Document) resolve(ref NodeRef) (*block, string, error) {
	switch ref.Kind {
	case KindDescription:
		return d.root, "description", nil
	case KindSectionItem:
		sec := findSection(d.Sections, ref.Section)
		if sec == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
		}
		return itemBlock(sec, ref)
	case KindTeacherReview:
		t := findTeacher(d.Teachers, ref.Teacher)
		if t == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
		}
		return reviewBlock(t, ref)
	case KindCourseSectionItem:
		c := findSubCourse(d.SubCourses, ref.Course)
		if c == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
		}
		sec := findSection(c.Sections, ref.Section)
		if sec == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
		}
		return itemBlock(sec, ref)
	case KindCourseTeacherReview:
		c := findSubCourse(d.SubCourses, ref.Course)
		if c == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
		}
		t := findTeacher(c.Teachers, ref.Teacher)
		if t == nil {
			return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
		}
		return reviewBlock(t, ref)
	}
	return nil, "", fmt.Errorf("%w: unknown node kind %q", ErrNodeNotFound, ref.Kind)
}

func itemBlock(sec *Section, ref NodeRef) (*block, string, error) {
	if ref.Index < 0 || ref.Index >= len(sec.Items) {
		return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
	}
	return sec.Items[ref.Index].blk, "content", nil
}

func reviewBlock(t *Teacher, ref NodeRef) (*block, string, error) {
	if ref.Index < 0 || ref.Index >= len(t.Reviews) {
		return nil, "", fmt.Errorf("%w: %s", ErrNodeNotFound, ref.Describe())
	}
	return t.Reviews[ref.Index].blk, "content", nil
}

// Container lookup is exact and case-sensitive throughout.

func findSection(sections []*Section, title string) *Section {
	for _, s := range sections {
		if s.Title() == title {
			return s
		}
	}
	return nil
}

func findTeacher(teachers []*Teacher, name string) *Teacher {
	for _, t := range teachers {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func findSubCourse(courses []*SubCourse, name string) *SubCourse {
	for _, c := range courses {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// appendAuthor merges one attribution into the block's author collection:
// none becomes an inline table, an inline table becomes a two-element array,
// an array is appended to. Never an overwrite.
func (b *block) appendAuthor(a Attribution) {
	e, ok := b.findEntry("author")
	if !ok {
		b.appendEntry(encodeAuthorEntry([]Attribution{a}))
		return
	}
	authors := decodeAuthors(b.entryValueText(e))
	authors = append(authors, a)
	b.replaceEntry(e, encodeAuthorEntry(authors))
}

// --- append operations ---

// AppendSectionItem appends a new item to the named section, creating the
// section (and, for multi-project documents, the named sub-course) at the end
// of its parent's list when absent. course=="" targets the top level.
func (d *Document) AppendSectionItem(course, section, content string, attr *Attribution) error {
	if NormalizeText(content) == "" {
		return ErrEmptyText
	}
	if course == "" {
		sec := findSection(d.Sections, section)
		if sec == nil {
			sec = d.appendSection(nil, section)
		}
		d.appendItemTo(sec, "sections.items", content, attr)
		return d.index()
	}

	c := findSubCourse(d.SubCourses, course)
	if c == nil {
		c = d.appendSubCourseBlock(course, "")
	}
	sec := findSection(c.Sections, section)
	if sec == nil {
		sec = d.appendSection(c, section)
	}
	d.appendItemTo(sec, "courses.sections.items", content, attr)
	return d.index()
}

// AppendTeacherReview appends a new review under the named teacher, creating
// the teacher (and sub-course) when absent.
func (d *Document) AppendTeacherReview(course, teacher, content string, attr *Attribution) error {
	if NormalizeText(content) == "" {
		return ErrEmptyText
	}
	if course == "" {
		t := findTeacher(d.Teachers, teacher)
		if t == nil {
			t = d.appendTeacher(nil, teacher)
		}
		d.appendReviewTo(t, "lecturers.reviews", content, attr)
		return d.index()
	}

	c := findSubCourse(d.SubCourses, course)
	if c == nil {
		c = d.appendSubCourseBlock(course, "")
	}
	t := findTeacher(c.Teachers, teacher)
	if t == nil {
		t = d.appendTeacher(c, teacher)
	}
	d.appendReviewTo(t, "courses.teachers.reviews", content, attr)
	return d.index()
}

// AppendSubCourse adds a new empty sub-course at the end of the course list.
func (d *Document) AppendSubCourse(name, code string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyText
	}
	if findSubCourse(d.SubCourses, name) != nil {
		return fmt.Errorf("document: sub-course %q already exists", name)
	}
	d.appendSubCourseBlock(name, code)
	return d.index()
}

func (d *Document) appendSection(c *SubCourse, title string) *Section {
	header := "sections"
	after := d.blocks[len(d.blocks)-1]
	if c != nil {
		header = "courses.sections"
		after = d.lastBlockOfCourse(c)
	} else if len(d.Sections) > 0 {
		after = d.lastBlockOfSection(d.Sections[len(d.Sections)-1])
	}
	nb := newBlock(header, "title = "+encodeBasicString(title))
	d.insertBlockAfter(after, nb)
	return &Section{blk: nb}
}

func (d *Document) appendTeacher(c *SubCourse, name string) *Teacher {
	header := "lecturers"
	after := d.blocks[len(d.blocks)-1]
	if c != nil {
		header = "courses.teachers"
		after = d.lastBlockOfCourse(c)
	} else if len(d.Teachers) > 0 {
		after = d.lastBlockOfTeacher(d.Teachers[len(d.Teachers)-1])
	}
	nb := newBlock(header, "name = "+encodeBasicString(name))
	d.insertBlockAfter(after, nb)
	return &Teacher{blk: nb}
}

func (d *Document) appendSubCourseBlock(name, code string) *SubCourse {
	lines := []string{"name = " + encodeBasicString(name)}
	if code != "" {
		lines = append(lines, "code = "+encodeBasicString(code))
	}
	nb := newBlock("courses", lines...)
	d.insertBlockAfter(d.blocks[len(d.blocks)-1], nb)
	return &SubCourse{blk: nb}
}

func (d *Document) appendItemTo(sec *Section, header, content string, attr *Attribution) {
	lines := encodeMultilineEntry("content", NormalizeText(content))
	if attr != nil {
		lines = append(lines, encodeAuthorEntry([]Attribution{*attr})...)
	}
	nb := newBlock(header, lines...)
	d.insertBlockAfter(d.lastBlockOfSection(sec), nb)
}

func (d *Document) appendReviewTo(t *Teacher, header, content string, attr *Attribution) {
	lines := encodeMultilineEntry("content", NormalizeText(content))
	if attr != nil {
		lines = append(lines, encodeAuthorEntry([]Attribution{*attr})...)
	}
	nb := newBlock(header, lines...)
	d.insertBlockAfter(d.lastBlockOfTeacher(t), nb)
}

func newBlock(header string, body ...string) *block {
	lines := []string{"[[" + header + "]]"}
	lines = append(lines, body...)
	return &block{header: header, lines: append(lines, "")}
}

func (d *Document) blockIndex(b *block) int {
	for i, x := range d.blocks {
		if x == b {
			return i
		}
	}
	return -1
}

func (d *Document) lastBlockOfSection(sec *Section) *block {
	if n := len(sec.Items); n > 0 {
		return sec.Items[n-1].blk
	}
	return sec.blk
}

func (d *Document) lastBlockOfTeacher(t *Teacher) *block {
	if n := len(t.Reviews); n > 0 {
		return t.Reviews[n-1].blk
	}
	return t.blk
}

// lastBlockOfCourse returns the last block still belonging to the sub-course:
// everything up to the next [[courses]] header or the end of the document.
func (d *Document) lastBlockOfCourse(c *SubCourse) *block {
	i := d.blockIndex(c.blk)
	for i+1 < len(d.blocks) && d.blocks[i+1].header != "courses" {
		i++
	}
	return d.blocks[i]
}

// insertBlockAfter splices nb in after prev, padding prev with a blank line so
// headers stay visually separated.
func (d *Document) insertBlockAfter(prev, nb *block) {
	if n := len(prev.lines); n == 0 || strings.TrimSpace(prev.lines[n-1]) != "" {
		prev.lines = append(prev.lines, "")
	}
	i := d.blockIndex(prev)
	out := make([]*block, 0, len(d.blocks)+1)
	out = append(out, d.blocks[:i+1]...)
	out = append(out, nb)
	out = append(out, d.blocks[i+1:]...)
	d.blocks = out
}
