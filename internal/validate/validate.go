// Package validate contains simple input validation helpers.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// Username checks length and allowed characters.
func Username(s string) error {
	if !usernameRe.MatchString(s) {
		return errors.New("invalid username")
	}
	return nil
}

// ShareName checks that a share name is non-empty, printable, and short
// enough to be used as a directory label.
func ShareName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("share name is required")
	}
	if len(s) > 128 {
		return errors.New("share name too long")
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return errors.New("share name contains invalid characters")
	}
	return nil
}

// Filename checks a single path element used as an upload target name.
func Filename(s string) error {
	if s == "" || s == "." || s == ".." {
		return errors.New("invalid filename")
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return errors.New("invalid filename")
	}
	return nil
}
