package models

// TableFormat identifies a delimited or line-oriented tabular encoding
type TableFormat string

const (
	FormatNone  TableFormat = ""
	FormatCSV   TableFormat = "csv"
	FormatTSV   TableFormat = "tsv"
	FormatJSONL TableFormat = "jsonl"
)

var tableExtensions = map[string]TableFormat{
	"csv":    FormatCSV,
	"tsv":    FormatTSV,
	"tab":    FormatTSV,
	"jsonl":  FormatJSONL,
	"ndjson": FormatJSONL,
}

var textExtensions = map[string]bool{
	"txt": true, "md": true, "rst": true, "log": true, "json": true, "xml": true,
	"yaml": true, "yml": true, "toml": true, "ini": true, "cfg": true, "conf": true,
	"html": true, "htm": true, "css": true, "js": true, "ts": true, "go": true,
	"py": true, "java": true, "c": true, "h": true, "cpp": true, "rs": true,
	"sh": true, "sql": true, "properties": true, "env": true,
}

var binaryExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true, "bmp": true, "ico": true,
	"webp": true, "pdf": true, "zip": true, "gz": true, "tgz": true, "bz2": true,
	"xz": true, "7z": true, "rar": true, "tar": true, "jar": true, "class": true,
	"exe": true, "dll": true, "so": true, "dylib": true, "o": true, "a": true,
	"bin": true, "mp3": true, "mp4": true, "mov": true, "avi": true, "wav": true,
	"flac": true, "woff": true, "woff2": true, "ttf": true, "otf": true,
	"parquet": true, "sqlite": true, "db": true,
}

// TableFormatOf returns the tabular format implied by an extension
func TableFormatOf(ext string) TableFormat {
	return tableExtensions[ext]
}

// IsBinaryExtension reports whether ext names a known binary format
func IsBinaryExtension(ext string) bool {
	return binaryExtensions[ext]
}

// IsKnownExtension reports whether ext is in the type registry
func IsKnownExtension(ext string) bool {
	return tableExtensions[ext] != FormatNone || textExtensions[ext] || binaryExtensions[ext]
}
