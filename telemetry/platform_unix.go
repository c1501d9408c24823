//go:build linux || darwin || freebsd || netbsd || openbsd

package telemetry

import "golang.org/x/sys/unix"

// platformRelease returns the kernel release and version strings from
// uname(2), or empty strings when the call fails.
func platformRelease() (release, version string) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", ""
	}
	return unix.ByteSliceToString(uts.Release[:]), unix.ByteSliceToString(uts.Version[:])
}
