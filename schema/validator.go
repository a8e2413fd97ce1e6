package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed sympla_events.schema.json
var symplaEventsSchemaJSON string

//go:embed youtube_search.schema.json
var youtubeSearchSchemaJSON string

// SymplaEventList is the decoded body of the Sympla events listing.
type SymplaEventList struct {
	Data []SymplaEvent `json:"data"`
}

type SymplaEvent struct {
	ID        FlexibleID `json:"id"`
	URL       string     `json:"url"`
	Name      string     `json:"name"`
	Image     string     `json:"image"`
	Detail    string     `json:"detail"`
	StartDate string     `json:"start_date"`
}

// YouTubeSearchList is the decoded body of a YouTube Data API search call.
type YouTubeSearchList struct {
	Items []YouTubeSearchResult `json:"items"`
}

type YouTubeSearchResult struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title string `json:"title"`
	} `json:"snippet"`
}

// FlexibleID accepts a JSON string or number and keeps its text form.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = FlexibleID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}

type compiledSchema struct {
	name   string
	source string

	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

var (
	symplaEventsSchema  = &compiledSchema{name: "sympla_events.schema.json", source: symplaEventsSchemaJSON}
	youtubeSearchSchema = &compiledSchema{name: "youtube_search.schema.json", source: youtubeSearchSchemaJSON}
)

func ValidateSymplaEvents(payload []byte) (*SymplaEventList, error) {
	var list SymplaEventList
	if err := validateInto(symplaEventsSchema, payload, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func ValidateYouTubeSearch(payload []byte) (*YouTubeSearchList, error) {
	var list YouTubeSearchList
	if err := validateInto(youtubeSearchSchema, payload, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func validateInto(cs *compiledSchema, payload []byte, target any) error {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := cs.load()
	if err != nil {
		return fmt.Errorf("load schema %s: %w", cs.name, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("normalize payload JSON: %w", err)
	}
	if err := json.Unmarshal(normalized, target); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

func (cs *compiledSchema) load() (*jsonschema.Schema, error) {
	cs.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource(cs.name, strings.NewReader(cs.source)); err != nil {
			cs.err = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(cs.name)
		if err != nil {
			cs.err = fmt.Errorf("compile schema: %w", err)
			return
		}
		cs.schema = schema
	})

	if cs.err != nil {
		return nil, cs.err
	}
	if cs.schema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return cs.schema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}
