package storage

import (
	"fmt"
	"strings"
)

// ParseObjectURI splits an s3://bucket/prefix URI.
// ok is false when uri does not use the s3 scheme.
func ParseObjectURI(uri string) (bucket, prefix string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	return bucket, strings.Trim(prefix, "/"), true
}

// Open returns a backend for a local path or an s3://bucket/prefix URI
func Open(uri string, cfg ObjectStoreConfig) (Backend, error) {
	bucket, prefix, isObject := ParseObjectURI(uri)
	if !isObject {
		local, err := NewLocal(uri)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("missing bucket in %q", uri)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("no object store endpoint configured for %q", uri)
	}

	client, err := NewObjectClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewObjectStore(client, bucket, prefix), nil
}
