// Package errors turns analysis failures into user-facing reports.
//
// The analysis pipeline returns typed errors: repository access
// failures from the git package, HTTP failures from the tracker
// backends, and context errors for deadlines. Describe maps any of
// these to a UserError carrying a plain-language message and an
// actionable suggestion, so front ends do not need to know the
// taxonomy.
package errors
