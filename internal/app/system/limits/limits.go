// internal/app/system/limits/limits.go
package limits

// Request body size limits. These help prevent memory exhaustion from
// oversized form submissions.
const (
	// MaxMemberFormSize caps member create/edit submissions. The forms are
	// plain fields; anything near this size is not a real browser.
	MaxMemberFormSize = 1 << 20 // 1 MB

	// MaxLoginFormSize caps sign-in submissions.
	MaxLoginFormSize = 1 << 16 // 64 KB
)
