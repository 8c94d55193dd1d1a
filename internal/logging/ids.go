package logging

import "github.com/charmbracelet/log"

// shortIDLength is the run id prefix shown outside debug logging.
const shortIDLength = 8

// FormatRunID formats a run id for logging based on the current log level.
// Debug logging keeps the full UUID so a run can be matched against the
// notification that carried it; other levels show the first 8 characters.
func FormatRunID(id string) string {
	if stdoutLogger.GetLevel() <= log.DebugLevel {
		return id
	}
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}
