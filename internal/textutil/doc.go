// Package textutil compares free text by token overlap.
//
// Text is lowercased, split on anything that is not a letter or digit, and
// tokens shorter than three characters are dropped. The pipeline uses this to
// check that an aligned transcript still covers the narration script.
package textutil
