// Package mediaerr defines the error taxonomy shared by the data model, the
// interchange codecs, and the pipelines.
//
// Sentinel errors carry the classification; structured wrappers carry the
// context a presentation layer needs to render a precise message (file path,
// offending line, chapter index, missing engine element) without this package
// depending on any UI. Classify with errors.Is against the sentinels.
package mediaerr
