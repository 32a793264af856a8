package codec

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarshalDeterministic(t *testing.T) {
	a := map[string]any{"source": "https://example.com/a.vgaconf", "name": "A", "icon": "i.png"}
	b := map[string]any{"icon": "i.png", "name": "A", "source": "https://example.com/a.vgaconf"}

	encA, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	encB, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(encA, encB) {
		t.Fatalf("same logical data encoded differently:\n%x\n%x", encA, encB)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"pageTitle": "Demo", "layers": []any{"a"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got any
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{"pageTitle": "Demo", "layers": []any{"a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded value mismatch (-want +got):\n%s", diff)
	}
}
