package sshutil

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// hostSettings holds the dial parameters after ssh_config resolution.
type hostSettings struct {
	hostname  string
	port      int
	matchLine int // line of the first Match block, 0 if none
	found     bool
}

// resolveHost maps a browser-supplied host onto dial parameters. When
// configPath names a readable ssh_config, a matching Host block may rewrite
// the hostname (HostName) and, if the frame left the port unset, supply it
// (Port). An explicit port always wins. Unreadable or unparsable configs are
// ignored; the target is dialed as given.
func resolveHost(configPath, host string, port int) hostSettings {
	settings := hostSettings{hostname: host, port: port}

	if configPath != "" {
		settings.apply(configPath, host, port == 0)
	}

	if settings.port == 0 {
		settings.port = DefaultPort
	}
	return settings
}

func (s *hostSettings) apply(configPath, host string, wantPort bool) {
	// The kevinburke/ssh_config library doesn't support Match, so only the
	// content before the first Match block is parsed.
	content, matchLine, err := preprocessSSHConfig(configPath)
	if err != nil {
		return
	}
	s.matchLine = matchLine

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return
	}

	if hostname, _ := cfg.Get(host, "HostName"); hostname != "" {
		s.hostname = hostname
		s.found = true
	}

	if !wantPort {
		return
	}
	if p, _ := cfg.Get(host, "Port"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 && n <= 65535 {
			s.port = n
			s.found = true
		}
	}
}

// preprocessSSHConfig reads the SSH config and returns content up to the first Match directive.
// Returns the original content if no Match directive is found.
// Also returns the line number where Match was found (0 if not found).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}
