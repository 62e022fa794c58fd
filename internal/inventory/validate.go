package inventory

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"

	"labcheck/internal/validator"
)

// UndefinedGroupError reports a [group:children] entry naming a group that
// does not exist in the inventory.
type UndefinedGroupError struct {
	File   string
	Parent string
	Child  string
}

func (e *UndefinedGroupError) Error() string {
	return fmt.Sprintf("%s: %s:children: group '%s' is not defined", e.File, e.Parent, e.Child)
}

func (e *UndefinedGroupError) Kind() string     { return "undefined_group" }
func (e *UndefinedGroupError) Filename() string { return e.File }

// HostLineError reports a host line that does not split into shell words,
// such as one with an unterminated quote.
type HostLineError struct {
	File  string
	Group string
	Line  string
	Err   error
}

func (e *HostLineError) Error() string {
	return fmt.Sprintf("%s: %s: host line '%s' cannot be split: %v", e.File, e.Group, e.Line, e.Err)
}

func (e *HostLineError) Unwrap() error    { return e.Err }
func (e *HostLineError) Kind() string     { return "host_line" }
func (e *HostLineError) Filename() string { return e.File }

var (
	hostnameRegex = regexp.MustCompile(`^([A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)(\.[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*$`)
	numericRegex  = regexp.MustCompile(`^[0-9.]+$`)
)

// ValidHostAddress accepts IP addresses and RFC 1123 host names.
func ValidHostAddress(s string) bool {
	if _, err := netip.ParseAddr(s); err == nil {
		return true
	}
	// Dotted numbers that failed to parse are malformed addresses, not names.
	return len(s) <= 253 && !numericRegex.MatchString(s) && hostnameRegex.MatchString(s)
}

// Validate checks host connection variables and group references.
func (inv *Inventory) Validate() []error {
	var errs []error

	for _, g := range inv.Groups {
		for _, h := range g.Hosts {
			errs = append(errs, inv.validateHost(g.Name, h)...)
		}
		for _, c := range g.Children {
			if _, ok := inv.Group(c); !ok {
				errs = append(errs, &UndefinedGroupError{File: inv.Path, Parent: g.Name, Child: c})
			}
		}
	}

	return errs
}

func (inv *Inventory) validateHost(group string, h Host) []error {
	if h.err != nil {
		return []error{&HostLineError{File: inv.Path, Group: group, Line: h.Line, Err: h.err}}
	}

	var errs []error
	key := func(name string) string { return fmt.Sprintf("%s.%s.%s", group, h.Name, name) }

	if addr, ok := h.Vars["ansible_host"]; ok && !ValidHostAddress(addr) {
		errs = append(errs, &validator.FormatViolationError{
			File:        inv.Path,
			Key:         key("ansible_host"),
			Value:       addr,
			Format:      "host_address",
			Description: "must be an IP address or host name",
		})
	}

	if port, ok := h.Vars["ansible_port"]; ok {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			errs = append(errs, &validator.FormatViolationError{
				File:        inv.Path,
				Key:         key("ansible_port"),
				Value:       port,
				Format:      "port",
				Description: "must be a port number between 1 and 65535",
			})
		}
	}

	return errs
}
