// Package foreman holds module-wide metadata.
package foreman

// Version is the foreman release version.
const Version = "0.3.0"
