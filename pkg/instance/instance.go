package instance

import (
	"os"
	"strings"
)

const defaultID = "local"

// GetID returns the process instance identifier. DYNO wins over
// CAMPAIGN_INSTANCE_ID; both unset yields "local".
func GetID() string {
	for _, key := range []string{"DYNO", "CAMPAIGN_INSTANCE_ID"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return defaultID
}
