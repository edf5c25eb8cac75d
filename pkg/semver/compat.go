// Package semver validates host/client version compatibility at handshake.
package semver

import (
	"fmt"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "semver:compat"

// CheckCompat validates a host-reported version against a constraint range
// (e.g. "^1.2.0", ">=1.0.0 <2.0.0"). An empty constraint accepts any version.
func CheckCompat(constraint, version string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}

	c, err := masterminds.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("%s - invalid constraint %q: %w", logPrefix, constraint, err)
	}
	v, err := masterminds.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%s - invalid host version %q: %w", logPrefix, version, err)
	}

	if ok, errs := c.Validate(v); !ok {
		reasons := make([]string, len(errs))
		for i, e := range errs {
			reasons[i] = e.Error()
		}
		return fmt.Errorf("%s - host version %s does not satisfy %q: %s", logPrefix, version, constraint, strings.Join(reasons, "; "))
	}
	return nil
}

// Normalize parses and re-renders a version string so equivalent spellings
// (e.g. "v1.2.0" and "1.2.0") compare equal in logs and descriptors.
func Normalize(version string) (string, error) {
	v, err := masterminds.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("%s - invalid version %q: %w", logPrefix, version, err)
	}
	return v.String(), nil
}
