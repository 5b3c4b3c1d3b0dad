package msquare

import _ "embed"

// Version is the release of the msquare binaries and library.
//
//go:embed VERSION
var Version string
