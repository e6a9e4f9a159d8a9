package service

import (
	_ "embed"
	"strings"
)

//go:embed iso4217.txt
var iso4217Raw string

// LoadISOCodes returns the ISO 4217 reference set. The list is a static
// asset loaded once at startup and passed to NewCodeChecker explicitly.
func LoadISOCodes() map[string]struct{} {
	codes := make(map[string]struct{})
	for _, line := range strings.Split(iso4217Raw, "\n") {
		code := strings.TrimSpace(line)
		if code == "" {
			continue
		}
		codes[strings.ToUpper(code)] = struct{}{}
	}
	return codes
}
