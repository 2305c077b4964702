package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"
)

// ResolveValue expands indirections in config values so that secrets and
// endpoints do not have to be written into the file:
//   - $(command) -> trimmed command output
//   - srv://_service._tcp.example.com/path -> http://host:port/path from DNS SRV
//   - ${VAR} or $VAR -> environment variable
//   - anything else -> returned as-is
func ResolveValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", nil
	case strings.HasPrefix(value, "$(") && strings.HasSuffix(value, ")"):
		return resolveCommand(value[2 : len(value)-1])
	case strings.HasPrefix(value, "srv://"):
		return resolveSRV(value)
	default:
		return expandEnv(value), nil
	}
}

// expandEnv expands ${VAR} or $VAR when it makes up the whole value.
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") && !strings.ContainsAny(s[1:], " /:") {
		return os.Getenv(s[1:])
	}
	return s
}

// resolveSRV turns srv://record/path into http://target:port/path. Local
// inference servers (Ollama, llama.cpp) usually speak plain HTTP.
func resolveSRV(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid srv:// URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("srv:// URL missing record: %s", raw)
	}

	_, addrs, err := net.LookupSRV("", "", u.Host)
	if err != nil {
		return "", fmt.Errorf("SRV lookup failed for %s: %w", u.Host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no SRV records found for %s", u.Host)
	}

	host := strings.TrimSuffix(addrs[0].Target, ".")
	return fmt.Sprintf("http://%s:%d%s", host, addrs[0].Port, u.Path), nil
}

func resolveCommand(cmd string) (string, error) {
	output, err := exec.Command("sh", "-c", cmd).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("command failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}
