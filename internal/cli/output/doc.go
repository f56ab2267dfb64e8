// Package output renders command results as a table, JSON or YAML.
//
// Tables take their column names from json tags. A slice of structs becomes
// one row per element, a single struct becomes FIELD/VALUE rows, and
// anything else falls back to YAML.
package output
