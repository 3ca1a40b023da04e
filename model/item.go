package model

import (
	"fmt"
	"strings"
	"time"
)

// Item is one fetched document as stored in the corpus. The concrete shape
// is determined by the active Schema; the store assigns "_id" and the
// refresher stamps "_fetchedAt".
type Item map[string]interface{}

// Schema describes one deployable item shape: which top-level fields of the
// upstream JSON are kept, which field must be non-empty for the item to be
// insertable, and which fields substring search runs against.
type Schema struct {
	Name         string
	Plural       string
	PrimaryField string
	Fields       []string
	SearchFields []string

	// Deployment defaults, overridable via environment.
	SourceURL      string
	Database       string
	Collection     string
	RateLimitDelay time.Duration
}

var Article = Schema{
	Name:           "article",
	Plural:         "articles",
	PrimaryField:   "title",
	Fields:         []string{"title", "description", "extract", "thumbnail", "content_urls"},
	SearchFields:   []string{"title", "description"},
	SourceURL:      "https://en.wikipedia.org/api/rest_v1/page/random/summary",
	Database:       "wikidb",
	Collection:     "articles",
	RateLimitDelay: 10 * time.Millisecond, // ~100 req/s, Wikimedia guideline
}

var Joke = Schema{
	Name:           "joke",
	Plural:         "jokes",
	PrimaryField:   "setup",
	Fields:         []string{"type", "setup", "punchline", "id"},
	SearchFields:   []string{"setup", "punchline", "type"},
	SourceURL:      "https://official-joke-api.appspot.com/jokes/random",
	Database:       "jokedb",
	Collection:     "jokes",
	RateLimitDelay: 100 * time.Millisecond,
}

// SchemaByName resolves a configured schema name to its definition.
func SchemaByName(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Article.Name:
		return Article, nil
	case Joke.Name:
		return Joke, nil
	default:
		return Schema{}, fmt.Errorf("unknown schema %q (want %q or %q)", name, Article.Name, Joke.Name)
	}
}

// Project reduces a decoded upstream document to the schema's fields and
// validates the primary display field. A document without a non-empty primary
// field is not an insertable item.
func (s Schema) Project(raw map[string]interface{}) (Item, error) {
	item := Item{}
	for _, field := range s.Fields {
		if v, ok := raw[field]; ok && v != nil {
			item[field] = v
		}
	}

	primary, _ := item[s.PrimaryField].(string)
	if strings.TrimSpace(primary) == "" {
		return nil, fmt.Errorf("%s missing %s field", s.Name, s.PrimaryField)
	}
	return item, nil
}
