package oracle

import (
	"testing"
)

func TestDecodeEntities_Plain(t *testing.T) {
	resp := `{"people": ["Bob"], "organizations": [], "concepts": ["indexing"], "locations": []}`
	e, err := decodeEntities(resp)
	if err != nil {
		t.Fatalf("decodeEntities: %v", err)
	}
	if len(e["people"]) != 1 || e["people"][0] != "Bob" {
		t.Errorf("people = %v", e["people"])
	}
	if e["locations"] == nil {
		t.Error("locations key must be present")
	}
}

func TestDecodeEntities_CodeFenced(t *testing.T) {
	resp := "```json\n{\"people\": [\"Alice\"]}\n```"
	e, err := decodeEntities(resp)
	if err != nil {
		t.Fatalf("decodeEntities: %v", err)
	}
	if len(e["people"]) != 1 || e["people"][0] != "Alice" {
		t.Errorf("people = %v", e["people"])
	}
	// Missing keys are filled in.
	for _, typ := range []string{"organizations", "concepts", "locations"} {
		if e[typ] == nil {
			t.Errorf("%s key missing", typ)
		}
	}
}

func TestDecodeEntities_Malformed(t *testing.T) {
	if _, err := decodeEntities("I could not find any entities."); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestEmptyEntities(t *testing.T) {
	e := emptyEntities()
	if len(e) != 4 {
		t.Errorf("len = %d, want 4", len(e))
	}
	for typ, names := range e {
		if names == nil || len(names) != 0 {
			t.Errorf("%s = %v, want empty slice", typ, names)
		}
	}
}
