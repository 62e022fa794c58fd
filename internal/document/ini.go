package document

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// UngroupedSection receives host lines that appear before any [group] header.
const UngroupedSection = "ungrouped"

// INIOptions controls inventory parsing.
type INIOptions struct {
	// Strict rejects a [group] header that appears more than once and a
	// host line repeated within a group. Otherwise repeats are merged.
	Strict bool
}

// ParseINI parses an Ansible-style inventory. Every non-comment line under a
// header becomes a key with a null value, and the whole line is the key:
// "web1 ansible_host=10.0.0.5" is not split at "=". The root maps each group
// name to the mapping of its lines. Only whole-line comments are dropped; a
// "#" inside a line is part of the host entry.
func ParseINI(name string, content []byte, opts INIOptions) (*Document, error) {
	load := ini.LoadOptions{
		AllowBooleanKeys:        true,
		AllowNonUniqueSections:  opts.Strict,
		KeyValueDelimiters:      "\x00",
		IgnoreContinuation:      true,
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
	}
	f, err := ini.LoadSources(load, content)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	if opts.Strict {
		// Lines are boolean keys, which ini refuses to shadow.
		load.AllowShadows = true
		if _, err := ini.LoadSources(load, content); err != nil {
			return nil, &ParseError{File: name, Err: fmt.Errorf("host line repeated within a group: %w", err)}
		}
	}

	root := NewMapping()
	groups := make(map[string]*Mapping)

	for _, sec := range f.Sections() {
		group := sec.Name()
		if group == ini.DefaultSection {
			if len(sec.KeyStrings()) == 0 {
				continue
			}
			group = UngroupedSection
		}

		hosts, seen := groups[group]
		if seen && opts.Strict && group != UngroupedSection {
			return nil, &ParseError{File: name, Err: fmt.Errorf("section %q already exists", group)}
		}
		if !seen {
			hosts = NewMapping()
			groups[group] = hosts
		}
		for _, line := range sec.KeyStrings() {
			hosts.Set(line, Null())
		}
	}

	for _, sec := range f.Sections() {
		group := sec.Name()
		if group == ini.DefaultSection {
			group = UngroupedSection
		}
		if hosts, ok := groups[group]; ok && !root.Has(group) {
			root.Set(group, Map(hosts))
		}
	}

	return &Document{Path: name, Format: FormatINI, Root: Map(root)}, nil
}
