package prserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCourseTOML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/courses/toml", r.URL.Path)
		assert.Equal(t, "AUTO1001", r.URL.Query().Get("repo_name"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		json.NewEncoder(w).Encode(map[string]string{
			"toml":   "course_code = \"AUTO1001\"\n",
			"source": "main",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	res, err := c.GetCourseTOML(context.Background(), "AUTO1001")
	require.NoError(t, err)
	assert.Equal(t, "course_code = \"AUTO1001\"\n", res.TOML)
	assert.Equal(t, "main", res.Source)
}

func TestGetCourseTOMLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unknown repo"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.GetCourseTOML(context.Background(), "NOPE9999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestGetCourseStructure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/courses/structure", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"summary": map[string]interface{}{
				"meta": map[string]string{
					"course_code": "AUTO1001",
					"course_name": "Intro to Automation",
					"repo_type":   "normal",
				},
				"sections": []map[string]interface{}{
					{
						"label": "Exam Tips",
						"items": []map[string]interface{}{
							{"index": 0, "preview": "Past papers matter most."},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	sum, err := c.GetCourseStructure(context.Background(), "AUTO1001")
	require.NoError(t, err)
	assert.Equal(t, "AUTO1001", sum.Meta.CourseCode)
	require.Len(t, sum.Sections, 1)
	assert.Equal(t, "Exam Tips", sum.Sections[0].Label)
}

func TestEnsurePRExistingRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/pr/ensure", r.URL.Path)

		var req EnsureRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AUTO1001", req.CourseCode)

		json.NewEncoder(w).Encode(map[string]string{
			"status": "updated",
			"pr_url": "https://example.com/org/AUTO1001/pull/7",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	res, err := c.EnsurePR(context.Background(), &EnsureRequest{
		CourseCode: "AUTO1001",
		CourseName: "Intro to Automation",
		RepoType:   "normal",
		TOML:       "course_code = \"AUTO1001\"\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/org/AUTO1001/pull/7", res.PRURL)
	assert.Empty(t, res.RequestID)
}

func TestEnsurePRMissingRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "queued",
			"request_id": "req-42",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	res, err := c.EnsurePR(context.Background(), &EnsureRequest{CourseCode: "NEW1000", TOML: "x = 1\n"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", res.RequestID)
	assert.Empty(t, res.PRURL)
}

func TestEnsurePREmptyResponseRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	_, err := c.EnsurePR(context.Background(), &EnsureRequest{CourseCode: "AUTO1001", TOML: "x = 1\n"})
	assert.Error(t, err)
}
