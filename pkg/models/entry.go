package models

import (
	"context"
	"encoding/hex"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sdejongh/filerecon/pkg/storage"
)

// FileEntry represents a file discovered under one of the compared roots
type FileEntry struct {
	// Path is the absolute path or object URI, unique within a run
	Path string `json:"path"`

	// RelativePath is the slash-separated path relative to the root
	RelativePath string `json:"relative_path"`

	// Size in bytes
	Size int64 `json:"size"`

	// ModTime is the last modification time reported by the backend
	ModTime time.Time `json:"mod_time"`

	// Extension is the lower-case extension without the leading dot
	Extension string `json:"extension,omitempty"`

	// Backend provides access to the file content
	Backend storage.Backend `json:"-"`
}

// NewFileEntry builds an entry from backend metadata
func NewFileEntry(backend storage.Backend, info storage.FileInfo) FileEntry {
	return FileEntry{
		Path:         info.Path,
		RelativePath: info.RelativePath,
		Size:         info.Size,
		ModTime:      info.ModTime,
		Extension:    ExtensionOf(info.RelativePath),
		Backend:      backend,
	}
}

// Open opens the entry content for reading
func (e FileEntry) Open(ctx context.Context) (io.ReadCloser, error) {
	if e.Backend == nil {
		return nil, &IoError{Path: e.Path, Op: "open", Err: errNoBackend}
	}
	rc, err := e.Backend.Read(ctx, e.RelativePath)
	if err != nil {
		return nil, &IoError{Path: e.Path, Op: "open", Err: err}
	}
	return rc, nil
}

// ReadAll loads the whole entry content
func (e FileEntry) ReadAll(ctx context.Context) ([]byte, error) {
	rc, err := e.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &IoError{Path: e.Path, Op: "read", Err: err}
	}
	return data, nil
}

// Name returns the base name of the entry
func (e FileEntry) Name() string {
	return path.Base(e.RelativePath)
}

// ExtensionOf returns the lower-case extension of name without the dot
func ExtensionOf(name string) string {
	ext := path.Ext(path.Base(name))
	if ext == "" || ext == "." {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// Fingerprint summarizes file content for matching
type Fingerprint struct {
	// StrongHash is the SHA-256 digest of the full content
	StrongHash [32]byte `json:"-"`

	// LocalityHash is a 64-bit similarity-preserving hash, zero for binary content
	LocalityHash uint64 `json:"locality_hash"`

	// Binary is set when the content was classified as binary
	Binary bool `json:"binary"`
}

// Hex returns the strong hash encoded as lower-case hex
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f.StrongHash[:])
}

// MatchMethod records which pass of the matcher produced a pair
type MatchMethod string

const (
	// MatchSamePath pairs files with identical relative paths
	MatchSamePath MatchMethod = "same-path"
	// MatchSameName pairs files with identical base names
	MatchSameName MatchMethod = "same-name"
	// MatchExactHash pairs files with identical strong hashes
	MatchExactHash MatchMethod = "exact-hash"
	// MatchFuzzy pairs files with close locality hashes
	MatchFuzzy MatchMethod = "fuzzy"
	// MatchSingle pairs two explicitly named files
	MatchSingle MatchMethod = "single"
)

// CandidatePair is a left/right pair selected for full comparison
type CandidatePair struct {
	Left          FileEntry   `json:"left"`
	Right         FileEntry   `json:"right"`
	BlockingScore float64     `json:"blocking_score"`
	Method        MatchMethod `json:"method"`
}
