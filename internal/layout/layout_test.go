// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/kbtree/pkg/types"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AI", "ai"},
		{"Machine Learning", "machine-learning"},
		{"  --Cloud & Infra!! ", "cloud-infra"},
		{"zebra-topic", "zebra-topic"},
		{"C++/Go", "c-go"},
		{"!!!", ""},
		{"Product Desc", "product_desc"},
		{"desc", "desc"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestPersonID(t *testing.T) {
	assert.Equal(t, "John_Smith", PersonID("John Smith"))
	assert.Equal(t, "Frank_Miller", PersonID("  Frank \t Miller "))
	assert.Equal(t, "a_b", PersonID("a/b"))
	assert.Equal(t, "J._R.", PersonID("J. R."))
	for _, name := range []string{".", "..", " ... "} {
		assert.Empty(t, PersonID(name), name)
	}
}

func TestTopicSlugNeverNamesADescription(t *testing.T) {
	product := TopicPath(Slugify("Product"))
	other := TopicPath(Slugify("Product Desc"))

	assert.NotEqual(t, DescPath(product), other)
	assert.False(t, IsDescFile(other[len(TopicsDir)+1:]))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "topics/agents.md", TopicPath("agents"))
	assert.Equal(t, "areas/ai/ai.md", AreaPath("ai"))
	assert.Equal(t, "people/John_Smith/John_Smith.md", PersonPath("John_Smith"))
	assert.Equal(t, "questions/q_0001.md", ItemPath(types.KindQuestion, "q_0001"))
	assert.Equal(t, "notes/n_0003.md", ItemPath(types.KindNote, "n_0003"))
	assert.Equal(t, "topics/agents/themes/planning.md", ThemePath("agents", "planning"))
	assert.Equal(t, "areas/ai/ai-desc.md", DescPath(AreaPath("ai")))
	assert.Equal(t, "![[ai-desc]]", DescEmbed("ai"))
	assert.True(t, IsDescFile("ai-desc.md"))
	assert.False(t, IsDescFile("ai.md"))
}
