package facts

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// DecodeFileDetails reads a per-file payload from r.
// A missing elements field decodes as an empty slice, not an error.
func DecodeFileDetails(r io.Reader) (*FileDetails, error) {
	var fd FileDetails
	if err := json.NewDecoder(r).Decode(&fd); err != nil {
		return nil, fmt.Errorf("decode file details: %w", err)
	}
	if fd.Elements == nil {
		fd.Elements = []CodeElement{}
	}
	return &fd, nil
}

// ReadFileDetails reads a per-file payload from a JSON file.
func ReadFileDetails(path string) (*FileDetails, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeFileDetails(f)
}

// EncodeFileDetails writes a per-file payload to w as indented JSON.
func EncodeFileDetails(w io.Writer, fd *FileDetails) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fd); err != nil {
		return fmt.Errorf("encode file details: %w", err)
	}
	return nil
}

// DecodeWorkflows reads an ordered list of workflow payloads from r.
func DecodeWorkflows(r io.Reader) ([]Workflow, error) {
	var ws []Workflow
	if err := json.NewDecoder(r).Decode(&ws); err != nil {
		return nil, fmt.Errorf("decode workflows: %w", err)
	}
	return ws, nil
}

// ReadWorkflows reads an ordered list of workflow payloads from a JSON file.
func ReadWorkflows(path string) ([]Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeWorkflows(f)
}
