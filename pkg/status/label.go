package status

import "strings"

// Icons use the codicon syntax understood by editor status bars
const (
	IconReady    = "$(run)"
	IconActive   = "$(rocket)"
	IconModified = "$(circle-filled)"
	IconUp       = "$(arrow-up)"
	IconDown     = "$(arrow-down)"
)

// Label composes the status text for the focused document fileName.
// The rocket replaces the run icon only when the focused document is the one
// being served, the server is up and the document has no unsaved changes.
func Label(fileName, activeFile string, running, dirty bool) string {
	active := !dirty && running && fileName == activeFile

	parts := make([]string, 0, 4)
	if active {
		parts = append(parts, IconActive)
	} else {
		parts = append(parts, IconReady)
	}
	parts = append(parts, fileName)
	if dirty {
		parts = append(parts, IconModified)
	}
	if running {
		parts = append(parts, IconUp)
	} else {
		parts = append(parts, IconDown)
	}

	return strings.Join(parts, " ")
}
