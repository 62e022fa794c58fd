package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is the syntax of a source file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatINI  Format = "ini"
)

// Document is a parsed configuration file.
type Document struct {
	Path   string
	Format Format
	Root   Value
}

// Lookup resolves a dotted key path ("jobs.lint.steps") from the root.
func (d *Document) Lookup(key string) (Value, bool) {
	return d.LookupPath(strings.Split(key, ".")...)
}

// LookupPath resolves a key path given as separate segments, for keys that
// contain dots themselves.
func (d *Document) LookupPath(segments ...string) (Value, bool) {
	cur := d.Root
	for _, seg := range segments {
		next, ok := cur.Get(seg)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Mapping returns the root mapping, or an empty one when the root is not a mapping.
func (d *Document) Mapping() *Mapping {
	if m := d.Root.Mapping(); m != nil {
		return m
	}
	return NewMapping()
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".ini", ".cfg", "":
		return FormatINI, nil
	}
	return "", fmt.Errorf("cannot infer format of %s", path)
}

// Load reads path in the given format. INI files are loaded non-strict.
func Load(path string, format Format) (*Document, error) {
	switch format {
	case FormatYAML:
		return LoadYAML(path)
	case FormatINI:
		return LoadINI(path, INIOptions{})
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// LoadYAML reads and parses a YAML file.
func LoadYAML(path string) (*Document, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(path, content)
}

// LoadINI reads and parses an INI inventory file.
func LoadINI(path string, opts INIOptions) (*Document, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseINI(path, content, opts)
}

func readFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}
