package format

import "io/fs"

// Named file permissions instead of magic numbers.
const (
	// DirUserOnly is for temp directories holding extracted archives (rwx------)
	DirUserOnly fs.FileMode = 0700

	// FileUserReadWrite is for result files and downloaded rules (rw-------)
	FileUserReadWrite fs.FileMode = 0600
)
