// Package ui holds the terminal styles shared by the command line output.
//
// Styles come from a [Palette]; the package-level palette is used for status lines printed after a
// lookup or batch run, and for the header row of rendered result tables.
package ui
