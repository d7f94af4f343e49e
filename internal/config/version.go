package config

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CurrentConfigVersion is written by config init.
const CurrentConfigVersion = "1.0.0"

// SupportedConfigVersions is the semver constraint config files must satisfy.
const SupportedConfigVersions = ">= 1.0.0, < 2.0.0"

// ErrUnsupportedConfigVersion is returned when config_version falls outside
// SupportedConfigVersions.
var ErrUnsupportedConfigVersion = errors.New("unsupported config version")

// CheckVersion validates a config_version value. An empty value is treated as
// the current version.
func CheckVersion(v string) error {
	if v == "" {
		return nil
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedConfigVersion, v)
	}
	constraint, err := semver.NewConstraint(SupportedConfigVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !constraint.Check(ver) {
		return fmt.Errorf("%w: %s does not satisfy %q", ErrUnsupportedConfigVersion, ver, SupportedConfigVersions)
	}
	return nil
}
