// Package envfile manages the Mythic .env file of an installation.
//
// # Format
//
// The file holds one assignment per line:
//
//	KEY=value
//
// The line is split on the first '='. Values are taken verbatim, so a value
// may itself contain '=' and is never quoted or unquoted. Blank lines and
// lines starting with '#' are ignored. Anything else without a '=' makes the
// file Malformed.
//
// # Keys
//
// Keys are canonicalised to upper snake case, so "debug-level",
// "debug_level" and "DEBUG_LEVEL" name the same option. This is the form the
// Mythic CLI reads from its environment.
//
// # Ordering
//
// A Configuration remembers insertion order. Persist writes keys in that
// order and Render lists them in that order, so repeated writes of the same
// Configuration are byte-identical and diffs stay small.
package envfile
