// Package version carries the build-time version string stamped into the
// admission service's and vetting worker's startup context and exposed to
// installers via the App-Version response header.
package version

// version indicates which version of the binary is running. During
// build, it is replaced with the actual release tag via -ldflags.
var version = "v0.0.0+unknown"

// Version returns the running binary's version string.
func Version() string {
	return version
}
