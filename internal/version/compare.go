package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// CheckCompatibility checks that a strategy written for requiredVersion can run
// on engineVersion. It returns an ErrCodeInvalidVersion error when it cannot.
//
// Rules:
//   - "main" on either side (development build) skips the check
//   - major versions must match
//   - the engine minor version must be at least the required one
//   - patch versions are ignored
//
// Examples:
//   - engine 0.4.0, strategy 0.4.2 -> OK
//   - engine 0.5.1, strategy 0.4.0 -> OK
//   - engine 0.4.0, strategy 0.5.0 -> ERROR (engine too old)
//   - engine 1.0.0, strategy 0.4.0 -> ERROR (major differs)
func CheckCompatibility(engineVersion, requiredVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	requiredVersion = strings.TrimPrefix(requiredVersion, "v")

	if engineVersion == "main" || requiredVersion == "main" {
		return nil
	}

	engine, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version %q", engineVersion)
	}

	required, err := semver.NewVersion(requiredVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid required engine version %q", requiredVersion)
	}

	if engine.Major() != required.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "major version mismatch: engine is %d.x.x but strategy requires %d.x.x",
			engine.Major(), required.Major())
	}

	if engine.Minor() < required.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion, "engine %d.%d.x is older than the %d.%d.x the strategy requires",
			engine.Major(), engine.Minor(), required.Major(), required.Minor())
	}

	return nil
}
