package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"https", "https://gitlab.example.com", false},
		{"trailing slash", "https://gitlab.example.com/", false},
		{"missing scheme", "gitlab.example.com", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, NewToken(""))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://gitlab.example.com", client.baseURL)
		})
	}
}

func TestListPipelinesPaginates(t *testing.T) {
	const available = 120

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v4/projects/app/pipelines", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

		var batch []PipelineSummary
		for i := (page-1)*perPage + 1; i <= page*perPage && i <= available; i++ {
			batch = append(batch, PipelineSummary{ID: int64(i), Ref: "main", Status: "success"})
		}
		if batch == nil {
			batch = []PipelineSummary{}
		}
		_ = json.NewEncoder(w).Encode(batch)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, NewToken("glpat-secret"))
	require.NoError(t, err)

	pipelines, err := client.ListPipelines(context.Background(), "app", 150, "")
	require.NoError(t, err)

	// Two full pages were requested; the short third page stops the loop.
	assert.Len(t, pipelines, available)
	assert.Equal(t, int64(1), pipelines[0].ID)
	assert.Equal(t, int64(available), pipelines[available-1].ID)
	assert.Equal(t, "Bearer glpat-secret", gotAuth)
}

func TestListPipelinesHonorsLimitAndRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "release", r.URL.Query().Get("ref"))

		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		batch := make([]PipelineSummary, perPage)
		for i := range batch {
			batch[i] = PipelineSummary{ID: int64(i + 1), Ref: "release", Status: "success"}
		}
		_ = json.NewEncoder(w).Encode(batch)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, NewToken(""))
	require.NoError(t, err)

	pipelines, err := client.ListPipelines(context.Background(), "app", 5, "release")
	require.NoError(t, err)
	assert.Len(t, pipelines, 5)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"404 Project Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, NewToken(""))
	require.NoError(t, err)

	_, err = client.ListPipelines(context.Background(), "missing", 10, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Project Not Found")
}

func TestProjectPathEscaping(t *testing.T) {
	client, err := NewClient("https://gitlab.example.com", NewToken(""))
	require.NoError(t, err)

	assert.Equal(t,
		"/api/v4/projects/group%2Fapp/pipelines",
		client.projectPath("group/app", "pipelines"))
	assert.Equal(t,
		fmt.Sprintf("/api/v4/projects/42/pipelines/%d/jobs", 7),
		client.projectPath("42", "pipelines/7/jobs"))
}
