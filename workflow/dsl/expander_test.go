package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivedNames(t *testing.T) {
	tests := []struct {
		file      string
		base      string
		instance  string
		topicFile string
	}{
		{"a.txt", "a", "a.mallet", "a.topics"},
		{"dir/a.txt", "a", "a.mallet", "a.topics"},
		{"dir/sub/report.final.csv", "report.final", "report.final.mallet", "report.final.topics"},
		{"noext", "noext", "noext.mallet", "noext.topics"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.base, BaseName(tt.file))
			assert.Equal(t, tt.instance, InferInstanceName(tt.file))
			assert.Equal(t, tt.topicFile, InferTopicsName(tt.file))
		})
	}

	assert.Equal(t, "news.mallet", SpaceInstanceName("news"))
}
