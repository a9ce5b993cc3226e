package models

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func fingerprintOf(content string) Fingerprint {
	return Fingerprint{StrongHash: sha256.Sum256([]byte(content))}
}

// ============== LinkedID Tests ==============

func TestLinkedID(t *testing.T) {
	a := fingerprintOf("alpha")
	b := fingerprintOf("beta")

	t.Run("OrderIndependent", func(t *testing.T) {
		if LinkedID(a, b) != LinkedID(b, a) {
			t.Errorf("LinkedID(a, b) = %s, LinkedID(b, a) = %s, want equal", LinkedID(a, b), LinkedID(b, a))
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		first := LinkedID(a, b)
		for i := 0; i < 10; i++ {
			if got := LinkedID(a, b); got != first {
				t.Fatalf("LinkedID() = %s, want %s", got, first)
			}
		}
	})

	t.Run("DistinctPairs", func(t *testing.T) {
		c := fingerprintOf("gamma")
		if LinkedID(a, b) == LinkedID(a, c) {
			t.Error("different pairs should not share a linked id")
		}
	})
}

func TestFingerprintHex(t *testing.T) {
	fp := fingerprintOf("")
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if fp.Hex() != want {
		t.Errorf("Hex() = %s, want %s", fp.Hex(), want)
	}
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"report.CSV", "csv"},
		{"dir/archive.tar.gz", "gz"},
		{"Makefile", ""},
		{"dir.d/noext", ""},
		{".bashrc", "bashrc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtensionOf(tt.name); got != tt.expected {
				t.Errorf("ExtensionOf(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

// ============== Result Tests ==============

func TestResultJSONDiscriminator(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		r := &TextResult{LinkedID: "id", SimilarityScore: 0.5, DiffPositions: []DiffRange{{File: 1, Start: 2, End: 3}}}
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if decoded["type"] != "text" {
			t.Errorf("type = %v, want text", decoded["type"])
		}
		if decoded["linked_id"] != "id" {
			t.Errorf("linked_id = %v, want id", decoded["linked_id"])
		}
	})

	t.Run("Structured", func(t *testing.T) {
		var r ComparisonResult = &StructuredResult{LinkedID: "id2", FieldMismatches: map[string]*MismatchStat{"price": {Count: 1}}}
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if decoded["type"] != "structured" {
			t.Errorf("type = %v, want structured", decoded["type"])
		}
		if r.Kind() != KindStructured {
			t.Errorf("Kind() = %s, want %s", r.Kind(), KindStructured)
		}
	})
}

// ============== Error Tests ==============

func TestWarningFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected WarningKind
	}{
		{"io", &IoError{Path: "a", Op: "open", Err: errors.New("denied")}, WarnIO},
		{"schema", &SchemaError{Path: "a.csv", Column: "id"}, WarnSchema},
		{"limit", &ResourceLimitError{Path: "a", Limit: "max_diff_bytes", Size: 10, Max: 5}, WarnResourceLimit},
		{"parse", &ParseError{Path: "a.jsonl", Line: 3, Err: errors.New("bad json")}, WarnParse},
		{"wrapped", fmt.Errorf("compare: %w", &SchemaError{Column: "id"}), WarnSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WarningFromError("a", tt.err)
			if w.Kind != tt.expected {
				t.Errorf("Kind = %s, want %s", w.Kind, tt.expected)
			}
			if w.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestIsConfigError(t *testing.T) {
	err := fmt.Errorf("startup: %w", &ConfigError{Field: "key", Message: "required in structured mode"})
	if !IsConfigError(err) {
		t.Error("IsConfigError() = false, want true")
	}
	if IsConfigError(errors.New("other")) {
		t.Error("IsConfigError() = true for unrelated error")
	}
}

func TestRunStatusExitCode(t *testing.T) {
	tests := []struct {
		status   RunStatus
		expected int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 1},
		{StatusFailed, 2},
		{StatusCancelled, 3},
		{RunStatus("unknown"), 2},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}
