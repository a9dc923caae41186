package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSignatureOrderIndependent(t *testing.T) {
	a := BuildSignature([]string{"build", "test", "deploy"})
	b := BuildSignature([]string{"deploy", "build", "test"})
	assert.Equal(t, a, b, "job order must not affect the signature")
}

func TestBuildSignatureDeduplicates(t *testing.T) {
	a := BuildSignature([]string{"build", "build", "test"})
	b := BuildSignature([]string{"build", "test"})
	assert.Equal(t, a, b)
}

func TestBuildSignatureDistinguishesSets(t *testing.T) {
	tests := []struct {
		name  string
		left  []string
		right []string
	}{
		{"extra job", []string{"build", "test"}, []string{"build", "test", "deploy"}},
		{"renamed job", []string{"build", "test"}, []string{"build", "lint"}},
		{"concatenation collision", []string{"ab", "c"}, []string{"a", "bc"}},
		{"empty vs one", nil, []string{"build"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, BuildSignature(tt.left), BuildSignature(tt.right))
		})
	}
}

func TestDefaultLabel(t *testing.T) {
	tests := []struct {
		name string
		jobs []string
		want string
	}{
		{"production wins", []string{"build", "deploy-prod"}, "Production Pipeline"},
		{"production beats staging", []string{"deploy-staging", "deploy-production"}, "Production Pipeline"},
		{"staging", []string{"build", "deploy-staging"}, "Development Pipeline"},
		{"test keyword", []string{"build", "unit-tests"}, "Development Pipeline"},
		{"generic", []string{"build", "lint"}, "Pipeline: build, lint"},
		{"generic truncates", []string{"a", "b", "c", "d"}, "Pipeline: a, b, c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultLabel(tt.jobs))
		})
	}
}
