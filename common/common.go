// Package common holds process-wide constants and logger setup shared by the binaries.
package common

// PackageName is the metrics namespace of every binary in this module.
const PackageName = "ul"

// Version is set at build time with -ldflags "-X github.com/ruteri/unified-ledger/common.Version=..."
var Version = "dev"
