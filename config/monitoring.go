package config

import (
	"errors"
	"fmt"
	"strings"
)

// MonitoringType selects the reporting strategy.
type MonitoringType string

const (
	MonitoringLocal  MonitoringType = "local"
	MonitoringServer MonitoringType = "server"
)

// Protocol selects the trace exporter used in server mode.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolGRPC   Protocol = "grpc"
	ProtocolStdout Protocol = "stdout"
)

var (
	// ErrInvalidMonitoringType is returned for a MONITORING_TYPE that is set
	// but names no known strategy.
	ErrInvalidMonitoringType = errors.New("invalid monitoring type")

	// ErrInvalidProtocol is returned for an unknown export protocol.
	ErrInvalidProtocol = errors.New("invalid export protocol")
)

// ParseMonitoringType maps a raw value to a MonitoringType. An empty value
// means local. Matching ignores case and surrounding spaces.
func ParseMonitoringType(s string) (MonitoringType, error) {
	switch MonitoringType(strings.ToLower(strings.TrimSpace(s))) {
	case "", MonitoringLocal:
		return MonitoringLocal, nil
	case MonitoringServer:
		return MonitoringServer, nil
	}
	return "", fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidMonitoringType, s, MonitoringLocal, MonitoringServer)
}

// ParseProtocol maps a raw value to a Protocol. An empty value means http.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(strings.ToLower(strings.TrimSpace(s))) {
	case "", ProtocolHTTP:
		return ProtocolHTTP, nil
	case ProtocolGRPC:
		return ProtocolGRPC, nil
	case ProtocolStdout:
		return ProtocolStdout, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProtocol, s)
}

// Endpoint returns the configured server, falling back to localhost.
func (m MonitoringConfig) Endpoint() string {
	if s := strings.TrimSpace(m.Server); s != "" {
		return s
	}
	return DefaultMonitoringServer
}
