package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const normalFixture = `# course review readme
course_code = "AUTO1001"
course_name = "Introduction to Automation"
repo_type = "normal"
description = """
A first-year survey course.
Projects are graded generously.
"""

[[sections]]
title = "Exam Tips"

[[sections.items]]
content = """
Past papers matter most.
"""

[[sections.items]]
content = """
The final is very difficult.
"""
author = { name = "alice", link = "https://alice.dev", date = "2023-11" }

[[lecturers]]
name = "Prof. Zhang"

[[lecturers.reviews]]
content = """
Lectures are clear but the homework is very difficult.
"""
`

const multiFixture = `course_code = "EE2000"
course_name = "EE Track"
repo_type = "multi-project"
description = """
Umbrella record for the EE track.
"""

[[courses]]
name = "Circuits"
code = "EE2001"

[[courses.sections]]
title = "Labs"

[[courses.sections.items]]
content = """
Book oscilloscopes early.
"""

[[courses.teachers]]
name = "Dr. Li"

[[courses.teachers.reviews]]
content = """
Grades homework very strictly.
"""

[[courses]]
name = "Signals"
code = "EE2002"

[[courses.teachers]]
name = "Dr. Wang"

[[courses.teachers.reviews]]
content = """
Exams reuse the problem sets.
"""
`

func TestParsePrintRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"normal", normalFixture},
		{"multi-project", multiFixture},
		{"no trailing newline", strings.TrimSuffix(normalFixture, "\n")},
		{"comments and spacing", "# top\n\ncourse_code = \"X\"\n\n\n# dangling comment\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.text, doc.Print())
		})
	}
}

func TestParsePrintRoundTripCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(normalFixture, "\n", "\r\n")
	doc, err := Parse(crlf)
	require.NoError(t, err)
	// line endings are the only permitted normalization
	assert.Equal(t, normalFixture, doc.Print())
}

func TestAccessors(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	assert.Equal(t, "AUTO1001", doc.CourseCode())
	assert.Equal(t, "Introduction to Automation", doc.CourseName())
	assert.Equal(t, "normal", doc.RepoType())
	assert.False(t, doc.MultiProject())
	assert.Contains(t, doc.Description(), "first-year survey")

	require.Len(t, doc.Sections, 1)
	sec := doc.Sections[0]
	assert.Equal(t, "Exam Tips", sec.Title())
	require.Len(t, sec.Items, 2)
	assert.Equal(t, "Past papers matter most.\n", sec.Items[0].Content())
	assert.Empty(t, sec.Items[0].Authors())

	authors := sec.Items[1].Authors()
	require.Len(t, authors, 1)
	assert.Equal(t, Attribution{Name: "alice", Link: "https://alice.dev", Date: "2023-11"}, authors[0])

	require.Len(t, doc.Teachers, 1)
	assert.Equal(t, "Prof. Zhang", doc.Teachers[0].Name())
	require.Len(t, doc.Teachers[0].Reviews, 1)
}

func TestAccessorsMultiProject(t *testing.T) {
	doc, err := Parse(multiFixture)
	require.NoError(t, err)

	assert.True(t, doc.MultiProject())
	require.Len(t, doc.SubCourses, 2)

	circuits := doc.SubCourses[0]
	assert.Equal(t, "Circuits", circuits.Name())
	assert.Equal(t, "EE2001", circuits.Code())
	require.Len(t, circuits.Sections, 1)
	require.Len(t, circuits.Sections[0].Items, 1)
	require.Len(t, circuits.Teachers, 1)
	require.Len(t, circuits.Teachers[0].Reviews, 1)

	signals := doc.SubCourses[1]
	assert.Equal(t, "Signals", signals.Name())
	assert.Empty(t, signals.Sections)
	require.Len(t, signals.Teachers, 1)
}

func TestParseRejectsOrphanItems(t *testing.T) {
	_, err := Parse("course_code = \"X\"\n\n[[sections.items]]\ncontent = \"stray\"\n")
	assert.Error(t, err)
}

const headerLookalikeFixture = `course_code = "AUTO1001"
course_name = "Introduction to Automation"
repo_type = "normal"

[[sections]]
title = "Exam Tips"

[[sections.items]]
content = """
Useful refs:
[[syllabus]]
and past exams.
"""

[[sections.items]]
content = '''
See also
[[handbook]]
chapter two.
'''
`

// A line that looks like a table header inside a multiline string is field
// content, not a new block.
func TestParseHeaderLookalikeInsideMultilineString(t *testing.T) {
	doc, err := Parse(headerLookalikeFixture)
	require.NoError(t, err)

	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].Items, 2)
	assert.Equal(t, "Useful refs:\n[[syllabus]]\nand past exams.",
		NormalizeText(doc.Sections[0].Items[0].Content()))
	assert.Equal(t, "See also\n[[handbook]]\nchapter two.",
		NormalizeText(doc.Sections[0].Items[1].Content()))

	assert.Equal(t, headerLookalikeFixture, doc.Print())
}

func TestLocateFindsTailAfterHeaderLookalike(t *testing.T) {
	doc, err := Parse(headerLookalikeFixture)
	require.NoError(t, err)

	hits := doc.Locate("past exams")
	require.Len(t, hits, 1)
	assert.Equal(t, KindSectionItem, hits[0].Ref.Kind)
	assert.Equal(t, 0, hits[0].Ref.Index)
}

func TestReplaceAroundHeaderLookalike(t *testing.T) {
	doc, err := Parse(headerLookalikeFixture)
	require.NoError(t, err)

	ref := NodeRef{Kind: KindSectionItem, Section: "Exam Tips", Index: 0}
	require.NoError(t, doc.Replace(ref, "and past exams.", "and the 2023 final.", nil))

	out := doc.Print()
	reparsed, err := Parse(out)
	require.NoError(t, err)
	require.Len(t, reparsed.Sections[0].Items, 2)
	assert.Contains(t, NormalizeText(reparsed.Sections[0].Items[0].Content()), "the 2023 final.")
	assert.Contains(t, NormalizeText(reparsed.Sections[0].Items[0].Content()), "[[syllabus]]")
	assert.Equal(t, "See also\n[[handbook]]\nchapter two.",
		NormalizeText(reparsed.Sections[0].Items[1].Content()))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a\nb", NormalizeText("  a\r\nb \n"))
	assert.Equal(t, "", NormalizeText(" \r\n "))
}
