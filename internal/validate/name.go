package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var locationRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// LocationFormat validates the cluster location tag that prefixes every
// notification subject (e.g. "LAB", "prod-east"). Only [A-Za-z0-9_-] are
// allowed and the tag may not start or end with '-' or '_'.
func LocationFormat(location string) error {
	if location == "" {
		return fmt.Errorf("cluster location cannot be empty")
	}

	if !locationRegex.MatchString(location) {
		return fmt.Errorf("cluster location '%s' must contain only letters, numbers, hyphens (-), and underscores (_)", location)
	}

	if strings.HasPrefix(location, "-") || strings.HasPrefix(location, "_") ||
		strings.HasSuffix(location, "-") || strings.HasSuffix(location, "_") {
		return fmt.Errorf("cluster location '%s' cannot start or end with hyphen (-) or underscore (_)", location)
	}

	return nil
}
