// Package filesystem provides a local-disk implementation of driven.ArtifactStore.
//
// Writes go to a temporary file in the target directory and are renamed into
// place, so a reader sees either the previous content or the complete new
// content. Files are created 0644 and directories 0755.
package filesystem
