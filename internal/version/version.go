// ABOUTME: Version information for rawdemux
// ABOUTME: Product and build identification shown by -version
package version

const (
	// Version is the release of this build
	Version = "0.3.0"

	// Product is the program name
	Product = "rawdemux"

	// Manufacturer identifies the maintainers
	Manufacturer = "Resonate Protocol"
)
