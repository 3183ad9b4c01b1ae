package sourcekit

import (
	"encoding/json"
	"maps"
	"slices"

	ferrors "git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// File is the parsed structure of one source (or symbol graph) file.
type File struct {
	Path string
	Root Record
}

// DecodeFiles parses SourceKitten output: a JSON array of single-entry
// objects mapping a file path to its root record.
func DecodeFiles(data []byte) ([]File, error) {
	var raw []map[string]Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "decode sourcekitten output").
			Fatal().
			Build()
	}
	var files []File
	for _, entry := range raw {
		for _, path := range slices.Sorted(maps.Keys(entry)) {
			files = append(files, File{Path: path, Root: entry[path]})
		}
	}
	return files, nil
}

// EncodeFiles is the inverse of DecodeFiles.
func EncodeFiles(files []File) ([]byte, error) {
	out := make([]map[string]Record, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]Record{f.Path: f.Root})
	}
	return json.MarshalIndent(out, "", "  ")
}
