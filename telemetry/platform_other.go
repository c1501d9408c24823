//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package telemetry

func platformRelease() (release, version string) { return "", "" }
