// Package static serves the site's pre-built files from a root directory.
// Paths that resolve outside the root are refused with 403, missing files and
// directories get 404, and the content type comes from a fixed extension table.
package static
