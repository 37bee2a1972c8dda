package backup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SSHConfigResolver implements HostResolver against an OpenSSH client
// configuration file. A remote host identifier is considered usable when a
// Host block declares it as a literal alias; wildcard patterns do not count
// as an explicit profile. The check is read-only.
type SSHConfigResolver struct {
	path string
}

// NewSSHConfigResolver creates a resolver for the given ssh_config path.
// An empty path means ~/.ssh/config.
func NewSSHConfigResolver(path string) *SSHConfigResolver {
	return &SSHConfigResolver{path: path}
}

// Resolve returns nil when host has a connection profile in the trusted
// host-alias configuration, and a configuration error otherwise.
func (r *SSHConfigResolver) Resolve(host string) error {
	if strings.TrimSpace(host) == "" {
		return NewConfigurationError("remote host identifier cannot be empty", nil)
	}

	path := r.path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewConfigurationError("failed to locate ssh configuration", err)
		}
		path = filepath.Join(home, ".ssh", "config")
	}

	aliases, err := parseHostAliases(path)
	if err != nil {
		return NewConfigurationError(
			fmt.Sprintf("failed to read host alias configuration %s", path), err)
	}

	for _, alias := range aliases {
		if alias == host {
			return nil
		}
	}
	return NewConfigurationError(
		fmt.Sprintf("remote host %s has no connection profile in %s", host, path), nil)
}

// parseHostAliases extracts the literal aliases of every Host block
func parseHostAliases(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var aliases []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.EqualFold(fields[0], "Host") {
			continue
		}

		for _, pattern := range fields[1:] {
			// Wildcard patterns are not explicit profiles.
			if strings.ContainsAny(pattern, "*?!") {
				continue
			}
			aliases = append(aliases, pattern)
		}
	}
	return aliases, scanner.Err()
}
