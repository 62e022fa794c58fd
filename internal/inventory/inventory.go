package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/shlex"

	"labcheck/internal/document"
)

const (
	varsSuffix     = ":vars"
	childrenSuffix = ":children"
)

// Host is one host line of a group. Line is the line exactly as it appears
// in the inventory; Name and Vars are derived from it.
type Host struct {
	Line string
	Name string
	Vars map[string]string

	err error // set when Line does not split into shell words
}

// Group is an inventory group with its hosts, [group:vars] and
// [group:children] sections merged in.
type Group struct {
	Name     string
	Hosts    []Host
	Vars     map[string]string
	Children []string
}

// Inventory is the structured view of an INI inventory.
type Inventory struct {
	Path   string
	Groups []*Group
}

// Load reads an inventory file.
func Load(path string, opts document.INIOptions) (*Inventory, error) {
	doc, err := document.LoadINI(path, opts)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc), nil
}

// FromDocument builds the structured view from a parsed INI document.
func FromDocument(doc *document.Document) *Inventory {
	inv := &Inventory{Path: doc.Path}
	root := doc.Mapping()

	for _, section := range root.Keys() {
		v, _ := root.Get(section)
		lines := v.Mapping().Keys()

		switch {
		case strings.HasSuffix(section, varsSuffix):
			g := inv.ensure(strings.TrimSuffix(section, varsSuffix))
			for _, line := range lines {
				k, val := splitAssignment(line)
				g.Vars[k] = val
			}
		case strings.HasSuffix(section, childrenSuffix):
			g := inv.ensure(strings.TrimSuffix(section, childrenSuffix))
			for _, line := range lines {
				g.Children = append(g.Children, strings.TrimSpace(line))
			}
		default:
			g := inv.ensure(section)
			for _, line := range lines {
				g.Hosts = append(g.Hosts, ParseHostLine(line))
			}
		}
	}

	return inv
}

func (inv *Inventory) ensure(name string) *Group {
	if g, ok := inv.Group(name); ok {
		return g
	}
	g := &Group{Name: name, Vars: map[string]string{}}
	inv.Groups = append(inv.Groups, g)
	return g
}

// Group returns the named group.
func (inv *Inventory) Group(name string) (*Group, bool) {
	for _, g := range inv.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// GroupNames lists groups in file order.
func (inv *Inventory) GroupNames() []string {
	names := make([]string, len(inv.Groups))
	for i, g := range inv.Groups {
		names[i] = g.Name
	}
	return names
}

// Hosts returns every host of a group, including hosts of child groups.
// Each host name appears once.
func (inv *Inventory) Hosts(group string) []Host {
	var out []Host
	seen := map[string]bool{}
	visiting := map[string]bool{}

	var walk func(name string)
	walk = func(name string) {
		g, ok := inv.Group(name)
		if !ok || visiting[name] {
			return
		}
		visiting[name] = true
		for _, h := range g.Hosts {
			if !seen[h.Name] {
				seen[h.Name] = true
				out = append(out, h)
			}
		}
		for _, c := range g.Children {
			walk(c)
		}
	}
	walk(group)

	return out
}

// ParseHostLine splits "name k=v k2='v 2'" into its parts with shell
// quoting and escapes, the way Ansible reads host lines. A line with an
// unterminated quote keeps only its first field as the name.
func ParseHostLine(line string) Host {
	h := Host{Line: line, Vars: map[string]string{}}
	fields, err := shlex.Split(line)
	if err != nil {
		h.err = err
		fields = strings.Fields(line)
		if len(fields) > 1 {
			fields = fields[:1]
		}
	}
	if len(fields) == 0 {
		return h
	}
	h.Name = fields[0]
	for _, f := range fields[1:] {
		k, v, _ := strings.Cut(f, "=")
		h.Vars[k] = v
	}
	return h
}

func splitAssignment(s string) (string, string) {
	k, v, found := strings.Cut(s, "=")
	if !found {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(k), unquote(strings.TrimSpace(v))
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Encode renders the inventory as INI. Host lines are written verbatim.
func (inv *Inventory) Encode() []byte {
	var sb strings.Builder
	for i, g := range inv.Groups {
		if i > 0 {
			sb.WriteString("\n")
		}
		if len(g.Hosts) > 0 || (len(g.Vars) == 0 && len(g.Children) == 0) {
			fmt.Fprintf(&sb, "[%s]\n", g.Name)
			for _, h := range g.Hosts {
				sb.WriteString(h.Line)
				sb.WriteString("\n")
			}
		}
		if len(g.Children) > 0 {
			fmt.Fprintf(&sb, "[%s%s]\n", g.Name, childrenSuffix)
			for _, c := range g.Children {
				sb.WriteString(c)
				sb.WriteString("\n")
			}
		}
		if len(g.Vars) > 0 {
			fmt.Fprintf(&sb, "[%s%s]\n", g.Name, varsSuffix)
			keys := make([]string, 0, len(g.Vars))
			for k := range g.Vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&sb, "%s=%s\n", k, g.Vars[k])
			}
		}
	}
	return []byte(sb.String())
}

// List renders the inventory in the layout of `ansible-inventory --list`.
func (inv *Inventory) List() map[string]any {
	out := map[string]any{}
	hostvars := map[string]any{}
	var top []string
	isChild := map[string]bool{}
	for _, g := range inv.Groups {
		for _, c := range g.Children {
			isChild[c] = true
		}
	}

	for _, g := range inv.Groups {
		entry := map[string]any{}
		if len(g.Hosts) > 0 {
			hosts := make([]string, 0, len(g.Hosts))
			for _, h := range g.Hosts {
				hosts = append(hosts, h.Name)
				if len(h.Vars) > 0 {
					hostvars[h.Name] = h.Vars
				}
			}
			entry["hosts"] = hosts
		}
		if len(g.Vars) > 0 {
			entry["vars"] = g.Vars
		}
		if len(g.Children) > 0 {
			entry["children"] = g.Children
		}
		out[g.Name] = entry
		if !isChild[g.Name] {
			top = append(top, g.Name)
		}
	}

	out["all"] = map[string]any{"children": top}
	out["_meta"] = map[string]any{"hostvars": hostvars}
	return out
}
