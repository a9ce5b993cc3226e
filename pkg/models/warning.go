package models

import (
	"errors"
)

// WarningKind categorizes a non-fatal problem
type WarningKind string

const (
	WarnIO              WarningKind = "io_error"
	WarnSchema          WarningKind = "schema_error"
	WarnParse           WarningKind = "parse_error"
	WarnResourceLimit   WarningKind = "resource_limit"
	WarnFanoutTruncated WarningKind = "fanout_truncated"
	WarnMaxPairs        WarningKind = "max_pairs"
	WarnAborted         WarningKind = "aborted"
	WarnJaroFallback    WarningKind = "jaro_fallback"
	WarnSchemaDrift     WarningKind = "schema_drift"
	WarnDuplicateKeys   WarningKind = "duplicate_keys"
)

// Warning is a per-file or per-pair problem that did not stop the run
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Path     string      `json:"path,omitempty"`
	Path2    string      `json:"path2,omitempty"`
	LinkedID string      `json:"linked_id,omitempty"`
	Message  string      `json:"message"`
}

// WarningFromError classifies err into a warning for path
func WarningFromError(path string, err error) Warning {
	w := Warning{Kind: WarnIO, Path: path, Message: err.Error()}

	var schemaErr *SchemaError
	var limitErr *ResourceLimitError
	var parseErr *ParseError
	switch {
	case errors.As(err, &schemaErr):
		w.Kind = WarnSchema
	case errors.As(err, &limitErr):
		w.Kind = WarnResourceLimit
	case errors.As(err, &parseErr):
		w.Kind = WarnParse
	}
	return w
}

// Side identifies one of the two compared roots
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Unmatched is a file that received no comparison
type Unmatched struct {
	Side   Side   `json:"side"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
