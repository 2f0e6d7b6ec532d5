package main

import (
	"regexp"

	"golang.org/x/text/cases"
)

// This file validates JSON-P callback names. The name a client supplies is
// echoed verbatim into a script-executable context, so anything that is not a
// plain identifier would let the client inject script through the wrapper.

// callbackNamePattern is the ECMAScript identifier grammar generalized to
// Unicode: "$", "_", a letter or a letter-number first; subsequent characters
// may additionally be combining marks, decimal digits, connector punctuation
// or the zero-width (non-)joiner. Anchored so the whole string must match.
var callbackNamePattern = regexp.MustCompile(`^[$_\p{L}\p{Nl}][$_\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}\x{200C}\x{200D}]*$`)

// reservedCallbackNames are the ECMAScript reserved words, which parse as
// identifiers but cannot be invoked as functions. Keys are case-folded.
var reservedCallbackNames = map[string]struct{}{
	"break": {}, "do": {}, "instanceof": {}, "typeof": {},
	"case": {}, "else": {}, "new": {}, "var": {},
	"catch": {}, "finally": {}, "return": {}, "void": {},
	"continue": {}, "for": {}, "switch": {}, "while": {},
	"debugger": {}, "function": {}, "this": {}, "with": {},
	"default": {}, "if": {}, "throw": {}, "delete": {},
	"in": {}, "try": {}, "class": {}, "enum": {},
	"extends": {}, "super": {}, "const": {}, "export": {},
	"import": {}, "implements": {}, "let": {}, "private": {},
	"public": {}, "yield": {}, "interface": {}, "package": {},
	"protected": {}, "static": {}, "null": {}, "true": {}, "false": {},
}

// IsValidCallbackName reports whether name is safe to use as a JSON-P
// callback: it must fully match the identifier grammar and must not collide
// with a reserved word under full Unicode case folding.
func IsValidCallbackName(name string) bool {
	if !callbackNamePattern.MatchString(name) {
		return false
	}
	_, reserved := reservedCallbackNames[cases.Fold().String(name)]
	return !reserved
}
