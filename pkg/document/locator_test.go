package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateSingleHit(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	got := doc.Locate("Past papers matter")
	require.Len(t, got, 1)
	assert.Equal(t, NodeRef{Kind: KindSectionItem, Section: "Exam Tips", Index: 0}, got[0].Ref)
	assert.Equal(t, "Past papers matter most.", got[0].Preview)
}

func TestLocateAmbiguousDocumentOrder(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	got := doc.Locate("very difficult")
	require.Len(t, got, 2)
	// section items precede teacher reviews in the walk
	assert.Equal(t, KindSectionItem, got[0].Ref.Kind)
	assert.Equal(t, KindTeacherReview, got[1].Ref.Kind)
	assert.Equal(t, "Prof. Zhang", got[1].Ref.Teacher)
	assert.Equal(t, 0, got[1].Ref.Index)
}

func TestLocateDeterministic(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	first := doc.Locate("very difficult")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, doc.Locate("very difficult"))
	}
}

func TestLocateDescription(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	got := doc.Locate("graded generously")
	require.Len(t, got, 1)
	assert.Equal(t, KindDescription, got[0].Ref.Kind)
}

func TestLocateMultiProject(t *testing.T) {
	doc, err := Parse(multiFixture)
	require.NoError(t, err)

	got := doc.Locate("problem sets")
	require.Len(t, got, 1)
	assert.Equal(t, NodeRef{
		Kind:    KindCourseTeacherReview,
		Course:  "Signals",
		Teacher: "Dr. Wang",
		Index:   0,
	}, got[0].Ref)

	got = doc.Locate("oscilloscopes")
	require.Len(t, got, 1)
	assert.Equal(t, KindCourseSectionItem, got[0].Ref.Kind)
	assert.Equal(t, "Circuits", got[0].Ref.Course)
	assert.Equal(t, "Labs", got[0].Ref.Section)
}

func TestLocateMiss(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	assert.Empty(t, doc.Locate("not in the document at all"))
	assert.Empty(t, doc.Locate("   "))
}

func TestLocateCaseSensitive(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	assert.Empty(t, doc.Locate("VERY DIFFICULT"))
}

func TestLocateNormalizesSnippet(t *testing.T) {
	doc, err := Parse(normalFixture)
	require.NoError(t, err)

	got := doc.Locate("  very difficult\r\n")
	assert.Len(t, got, 2)
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 200)
	pv := previewLine(long + "\nsecond line")
	assert.Equal(t, previewLimit, len([]rune(pv)))
	assert.True(t, strings.HasSuffix(pv, "…"))

	assert.Equal(t, "short", previewLine("short\nrest"))
}
