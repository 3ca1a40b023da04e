package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaByName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "article", input: "article", want: "article"},
		{name: "joke", input: "joke", want: "joke"},
		{name: "case insensitive", input: "  Article ", want: "article"},
		{name: "unknown", input: "meme", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := SchemaByName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, schema.Name)
		})
	}
}

func TestProjectKeepsSchemaFields(t *testing.T) {
	raw := map[string]interface{}{
		"title":       "Go (programming language)",
		"description": "statically typed language",
		"extract":     "Go is a statically typed, compiled language.",
		"thumbnail":   map[string]interface{}{"source": "https://example.org/go.png"},
		"pageid":      1234,
		"lang":        "en",
	}

	item, err := Article.Project(raw)
	require.NoError(t, err)

	assert.Equal(t, "Go (programming language)", item["title"])
	assert.Contains(t, item, "thumbnail")
	assert.NotContains(t, item, "pageid", "fields outside the schema are dropped")
	assert.NotContains(t, item, "lang")
}

func TestProjectRejectsMissingPrimaryField(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
	}{
		{name: "absent", raw: map[string]interface{}{"punchline": "it compiles"}},
		{name: "empty", raw: map[string]interface{}{"setup": ""}},
		{name: "whitespace", raw: map[string]interface{}{"setup": "   "}},
		{name: "wrong type", raw: map[string]interface{}{"setup": 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Joke.Project(tt.raw)
			assert.Error(t, err, "an item without its primary field is a fetch failure")
		})
	}
}

func TestProjectJoke(t *testing.T) {
	raw := map[string]interface{}{
		"type":      "general",
		"setup":     "Why do programmers prefer dark mode?",
		"punchline": "Because light attracts bugs.",
		"id":        float64(17),
	}

	item, err := Joke.Project(raw)
	require.NoError(t, err)
	assert.Equal(t, "general", item["type"])
	assert.Equal(t, float64(17), item["id"])
}
