package document

import (
	"fmt"
	"strings"
)

// NodeKind enumerates the addressable free-text fields of a document.
type NodeKind string

const (
	KindDescription         NodeKind = "description"
	KindSectionItem         NodeKind = "section_item"
	KindTeacherReview       NodeKind = "teacher_review"
	KindCourseSectionItem   NodeKind = "course_section_item"
	KindCourseTeacherReview NodeKind = "course_teacher_review"
)

// NodeRef is a stable address of one free-text field. It is only meaningful
// against the document snapshot it was produced from; the patch builder
// re-validates before mutating.
type NodeRef struct {
	Kind    NodeKind `json:"kind"`
	Course  string   `json:"course,omitempty"`
	Section string   `json:"section,omitempty"`
	Teacher string   `json:"teacher,omitempty"`
	Index   int      `json:"index,omitempty"` // item or review index, 0-based
}

// Describe renders the ref for user-facing messages.
func (r NodeRef) Describe() string {
	switch r.Kind {
	case KindDescription:
		return "description"
	case KindSectionItem:
		return fmt.Sprintf("section %q item #%d", r.Section, r.Index+1)
	case KindTeacherReview:
		return fmt.Sprintf("teacher %q review #%d", r.Teacher, r.Index+1)
	case KindCourseSectionItem:
		return fmt.Sprintf("sub-course %q section %q item #%d", r.Course, r.Section, r.Index+1)
	case KindCourseTeacherReview:
		return fmt.Sprintf("sub-course %q teacher %q review #%d", r.Course, r.Teacher, r.Index+1)
	}
	return string(r.Kind)
}

// Candidate is one locator hit: an address plus a one-line preview.
type Candidate struct {
	Ref     NodeRef `json:"ref"`
	Preview string  `json:"preview"`
}

const previewLimit = 60

// previewLine reduces content to its first line, capped at previewLimit runes.
func previewLine(content string) string {
	pv := strings.TrimSpace(content)
	if i := strings.Index(pv, "\n"); i >= 0 {
		pv = strings.TrimSpace(pv[:i])
	}
	runes := []rune(pv)
	if len(runes) > previewLimit {
		return string(runes[:previewLimit-1]) + "…"
	}
	return pv
}

// Locate finds every free-text field whose normalized content contains the
// normalized snippet, case-sensitive. Walk order is fixed document order:
// description, each section's items, each teacher's reviews, then per
// sub-course its sections and teachers. Every hit is returned; ambiguity is
// the caller's branch, never resolved here.
func (d *Document) Locate(snippet string) []Candidate {
	s := NormalizeText(snippet)
	if s == "" {
		return nil
	}

	var out []Candidate
	if desc := NormalizeText(d.Description()); desc != "" && strings.Contains(desc, s) {
		out = append(out, Candidate{
			Ref:     NodeRef{Kind: KindDescription},
			Preview: previewLine(desc),
		})
	}

	for _, sec := range d.Sections {
		out = append(out, locateInSection(sec, s, NodeRef{Kind: KindSectionItem, Section: sec.Title()})...)
	}
	for _, t := range d.Teachers {
		out = append(out, locateInTeacher(t, s, NodeRef{Kind: KindTeacherReview, Teacher: t.Name()})...)
	}
	for _, c := range d.SubCourses {
		for _, sec := range c.Sections {
			out = append(out, locateInSection(sec, s, NodeRef{
				Kind: KindCourseSectionItem, Course: c.Name(), Section: sec.Title(),
			})...)
		}
		for _, t := range c.Teachers {
			out = append(out, locateInTeacher(t, s, NodeRef{
				Kind: KindCourseTeacherReview, Course: c.Name(), Teacher: t.Name(),
			})...)
		}
	}
	return out
}

func locateInSection(sec *Section, s string, base NodeRef) []Candidate {
	var out []Candidate
	for i, it := range sec.Items {
		content := NormalizeText(it.Content())
		if content == "" || !strings.Contains(content, s) {
			continue
		}
		ref := base
		ref.Index = i
		out = append(out, Candidate{Ref: ref, Preview: previewLine(content)})
	}
	return out
}

func locateInTeacher(t *Teacher, s string, base NodeRef) []Candidate {
	var out []Candidate
	for i, rv := range t.Reviews {
		content := NormalizeText(rv.Content())
		if content == "" || !strings.Contains(content, s) {
			continue
		}
		ref := base
		ref.Index = i
		out = append(out, Candidate{Ref: ref, Preview: previewLine(content)})
	}
	return out
}
