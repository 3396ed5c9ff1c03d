// Package resources provides static asset handling for the dashboard.
package resources

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"
