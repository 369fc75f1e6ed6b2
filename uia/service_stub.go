//go:build !windows

package uia

// NewPlatformService reports ErrUnsupported on platforms without an
// accessibility backend.
func NewPlatformService() (Service, error) {
	return nil, ErrUnsupported
}
