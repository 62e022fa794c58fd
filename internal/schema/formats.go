package schema

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

// Format is a named predicate over string values.
type Format struct {
	Name        string
	Description string   // human phrasing, e.g. "must start with /"
	Pattern     string   // equivalent JSON Schema pattern, if one exists
	Values      []string // allowed values for enumerations
	check       func(string) bool
}

// Check reports whether s satisfies the format.
func (f *Format) Check(s string) bool {
	if f == nil || f.check == nil {
		return true
	}
	return f.check(s)
}

// clone returns a copy that shares no mutable state with f.
func (f *Format) clone() *Format {
	if f == nil {
		return nil
	}
	if f.Name == FormatOneOf {
		return OneOf(f.Values...)
	}
	c := *f
	return &c
}

// Format names accepted in rule files.
const (
	FormatHTTPURL      = "http_url"
	FormatAbsolutePath = "absolute_path"
	FormatOneOf        = "one_of"
	FormatUsername     = "username"
	FormatSSHPublicKey = "ssh_public_key"
	FormatTimezone     = "timezone"
	FormatNonEmpty     = "non_empty"
)

// HTTPURL accepts absolute http and https URLs with a host.
func HTTPURL() *Format {
	return &Format{
		Name:        FormatHTTPURL,
		Description: "must start with http:// or https://",
		Pattern:     "^https?://",
		check: func(s string) bool {
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
				return false
			}
			u, err := url.Parse(s)
			return err == nil && u.Host != ""
		},
	}
}

// AbsolutePath accepts paths starting with "/".
func AbsolutePath() *Format {
	return &Format{
		Name:        FormatAbsolutePath,
		Description: "must start with /",
		Pattern:     "^/",
		check:       func(s string) bool { return strings.HasPrefix(s, "/") },
	}
}

// OneOf accepts exactly the listed values.
func OneOf(values ...string) *Format {
	allowed := make([]string, len(values))
	copy(allowed, values)
	return &Format{
		Name:        FormatOneOf,
		Description: "must be one of {" + strings.Join(allowed, ", ") + "}",
		Values:      allowed,
		check: func(s string) bool {
			for _, v := range allowed {
				if v == s {
					return true
				}
			}
			return false
		},
	}
}

var usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Username accepts portable Linux user names.
func Username() *Format {
	return &Format{
		Name:        FormatUsername,
		Description: "must be a Linux user name starting with a letter or underscore",
		Pattern:     usernameRegex.String(),
		check:       usernameRegex.MatchString,
	}
}

var sshKeyTypes = []string{
	"ssh-ed25519",
	"ssh-rsa",
	"ssh-dss",
	"ecdsa-sha2-nistp256",
	"ecdsa-sha2-nistp384",
	"ecdsa-sha2-nistp521",
	"sk-ssh-ed25519@openssh.com",
	"sk-ecdsa-sha2-nistp256@openssh.com",
}

var base64Regex = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// SSHPublicKey accepts authorized_keys style lines: "<type> <base64> [comment]".
func SSHPublicKey() *Format {
	return &Format{
		Name:        FormatSSHPublicKey,
		Description: "must be an SSH public key (type, key data and optional comment)",
		check: func(s string) bool {
			fields := strings.Fields(s)
			if len(fields) < 2 {
				return false
			}
			known := false
			for _, t := range sshKeyTypes {
				if fields[0] == t {
					known = true
					break
				}
			}
			return known && base64Regex.MatchString(fields[1])
		},
	}
}

// Timezone accepts IANA time zone names.
func Timezone() *Format {
	return &Format{
		Name:        FormatTimezone,
		Description: "must be an IANA time zone name",
		check: func(s string) bool {
			if s == "" || s == "Local" {
				return false
			}
			_, err := time.LoadLocation(s)
			return err == nil
		},
	}
}

// NonEmpty rejects blank strings.
func NonEmpty() *Format {
	return &Format{
		Name:        FormatNonEmpty,
		Description: "must not be empty",
		Pattern:     `\S`,
		check:       func(s string) bool { return strings.TrimSpace(s) != "" },
	}
}

// FormatByName builds a format from its rule-file name. values is only used
// by one_of.
func FormatByName(name string, values []string) (*Format, bool) {
	switch name {
	case FormatHTTPURL:
		return HTTPURL(), true
	case FormatAbsolutePath:
		return AbsolutePath(), true
	case FormatOneOf:
		return OneOf(values...), true
	case FormatUsername:
		return Username(), true
	case FormatSSHPublicKey:
		return SSHPublicKey(), true
	case FormatTimezone:
		return Timezone(), true
	case FormatNonEmpty:
		return NonEmpty(), true
	}
	return nil, false
}
