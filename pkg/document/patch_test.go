package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceSingleFieldIsolation(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	ref := NodeRef{Kind: KindTeacherReview, Teacher: "Prof. Zhang", Index: 0}
	err = doc.Replace(ref, "very difficult", "fairly easy", nil)
	require.NoError(t, err)

	out, err := Parse(doc.Print())
	require.NoError(t, err)

	// only the addressed review changed
	assert.Equal(t, "Lectures are clear but the homework is fairly easy.",
		NormalizeText(out.Teachers[0].Reviews[0].Content()))

	before, _ := Parse(normalFixture)
	assert.Equal(t, before.Description(), out.Description())
	assert.Equal(t, before.Sections[0].Items[0].Content(), out.Sections[0].Items[0].Content())
	assert.Equal(t, before.Sections[0].Items[1].Content(), out.Sections[0].Items[1].Content())
	assert.Equal(t, before.Sections[0].Items[1].Authors(), out.Sections[0].Items[1].Authors())
}

func TestReplacePreservesUnrelatedBytes(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	ref := NodeRef{Kind: KindSectionItem, Section: "Exam Tips", Index: 0}
	require.NoError(t, doc.Replace(ref, "Past papers", "Tutorials", nil))

	out := doc.Print()
	// the comment header and every other table are untouched
	assert.True(t, strings.HasPrefix(out, "# course review readme\n"))
	assert.Contains(t, out, "author = { name = \"alice\", link = \"https://alice.dev\", date = \"2023-11\" }")
	assert.Contains(t, out, "Lectures are clear but the homework is very difficult.")
	assert.Contains(t, out, "Tutorials matter most.")
	assert.NotContains(t, out, "Past papers matter most.")
}

func TestReplaceDescription(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	err = doc.Replace(NodeRef{Kind: KindDescription}, "graded generously", "graded on a curve", nil)
	require.NoError(t, err)
	assert.Contains(t, doc.Print(), "graded on a curve")
}

func TestReplaceFirstOccurrenceOnly(t *testing.T) {
	text := "course_code = \"X\"\nrepo_type = \"normal\"\n\n[[sections]]\ntitle = \"S\"\n\n[[sections.items]]\ncontent = \"\"\"\nrepeat repeat repeat\n\"\"\"\n"
	doc, err := Parse(text)
	require.NoError(t, err)

	ref := NodeRef{Kind: KindSectionItem, Section: "S", Index: 0}
	require.NoError(t, doc.Replace(ref, "repeat", "once", nil))

	out, _ := Parse(doc.Print())
	assert.Equal(t, "once repeat repeat", NormalizeText(out.Sections[0].Items[0].Content()))
}

func TestReplaceStaleContentRejected(t *testing.T) {
	s2, err := Parse(normalFixture)
	require.NoError(t, err)
	ref := NodeRef{Kind: KindTeacherReview, Teacher: "Prof. Zhang", Index: 0}

	// drift the target between location and patch
	require.NoError(t, s2.Replace(ref, "very difficult", "reworked", nil))
	snapshot := s2.Print()

	err = s2.Replace(ref, "very difficult", "anything", nil)
	require.ErrorIs(t, err, ErrContentDrifted)
	assert.Equal(t, snapshot, s2.Print(), "failed patch must not modify the document")
}

func TestReplaceMissingContainerRejected(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	err = doc.Replace(NodeRef{Kind: KindTeacherReview, Teacher: "Nobody", Index: 0}, "x", "y", nil)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	err = doc.Replace(NodeRef{Kind: KindSectionItem, Section: "Exam Tips", Index: 9}, "x", "y", nil)
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestReplaceEmptyOldRejected(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	err = doc.Replace(NodeRef{Kind: KindDescription}, "  ", "y", nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestAttributionMonotonicity(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)
	ref := NodeRef{Kind: KindSectionItem, Section: "Exam Tips", Index: 0}

	first := Attribution{Name: "bob", Date: "2024-01"}
	require.NoError(t, doc.Replace(ref, "Past papers", "Past exams", &first))

	out, err := Parse(doc.Print())
	require.NoError(t, err)
	got := out.Sections[0].Items[0].Authors()
	require.Len(t, got, 1)
	assert.Equal(t, first, got[0])

	second := Attribution{Name: "carol", Link: "https://carol.io", Date: "2024-02"}
	require.NoError(t, out.Replace(ref, "Past exams", "Old exams", &second))

	final, err := Parse(out.Print())
	require.NoError(t, err)
	got = final.Sections[0].Items[0].Authors()
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0], "existing attribution preserved unchanged")
	assert.Equal(t, second, got[1])
}

func TestAppendSectionItemExistingSection(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	err = doc.AppendSectionItem("", "Exam Tips", "Bring a calculator.", nil)
	require.NoError(t, err)

	out, err := Parse(doc.Print())
	require.NoError(t, err)
	require.Len(t, out.Sections, 1)
	items := out.Sections[0].Items
	require.Len(t, items, 3)
	assert.Equal(t, "Bring a calculator.", NormalizeText(items[2].Content()))
	assert.Empty(t, items[2].Authors())

	// earlier items untouched
	assert.Equal(t, "Past papers matter most.", NormalizeText(items[0].Content()))
}

func TestAppendSectionItemCreatesSection(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	attr := Attribution{Name: "dave", Date: "2024-03"}
	err = doc.AppendSectionItem("", "Course Selection", "Take it in year two.", &attr)
	require.NoError(t, err)

	out, err := Parse(doc.Print())
	require.NoError(t, err)
	require.Len(t, out.Sections, 2)
	created := out.Sections[1]
	assert.Equal(t, "Course Selection", created.Title())
	require.Len(t, created.Items, 1)
	assert.Equal(t, "Take it in year two.", NormalizeText(created.Items[0].Content()))
	assert.Equal(t, []Attribution{attr}, created.Items[0].Authors())
}

func TestAppendTeacherReview(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	require.NoError(t, doc.AppendTeacherReview("", "Prof. Zhang", "Office hours help a lot.", nil))
	require.NoError(t, doc.AppendTeacherReview("", "Prof. Chen", "New hire, engaging lectures.", nil))

	out, err := Parse(doc.Print())
	require.NoError(t, err)
	require.Len(t, out.Teachers, 2)
	assert.Len(t, out.Teachers[0].Reviews, 2)
	assert.Equal(t, "Prof. Chen", out.Teachers[1].Name())
	require.Len(t, out.Teachers[1].Reviews, 1)
}

func TestAppendIntoSubCourse(t *testing.T) {
	doc, err := Parse(multiFixture)
	require.NoError(t, err)

	require.NoError(t, doc.AppendSectionItem("Circuits", "Labs", "Solder practice kits available.", nil))
	require.NoError(t, doc.AppendTeacherReview("Signals", "Dr. Wang", "Slides posted late.", nil))

	out, err := Parse(doc.Print())
	require.NoError(t, err)
	assert.Len(t, out.SubCourses[0].Sections[0].Items, 2)
	assert.Len(t, out.SubCourses[1].Teachers[0].Reviews, 2)
	// the new Circuits item must not leak into Signals
	assert.Len(t, out.SubCourses[1].Sections, 0)
}

func TestAppendSubCourse(t *testing.T) {
	doc, err := Parse(multiFixture)
	require.NoError(t, err)

	require.NoError(t, doc.AppendSubCourse("Fields", "EE2003"))
	err = doc.AppendSubCourse("Fields", "EE2003")
	assert.Error(t, err, "duplicate sub-course rejected")

	out, err := Parse(doc.Print())
	require.NoError(t, err)
	require.Len(t, out.SubCourses, 3)
	assert.Equal(t, "Fields", out.SubCourses[2].Name())
	assert.Equal(t, "EE2003", out.SubCourses[2].Code())
}

func TestAppendRoundTripStable(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)
	require.NoError(t, doc.AppendSectionItem("", "Exam Tips", "Bring a calculator.", nil))

	printed := doc.Print()
	again, err := Parse(printed)
	require.NoError(t, err)
	assert.Equal(t, printed, again.Print())
}
