// Package voice is the companion's ears and mouth: a console voice for
// typed conversations and a speech voice that records, transcribes and
// speaks through external services.
package voice

import "time"

// DefaultListenTimeout bounds one Listen call.
const DefaultListenTimeout = 8 * time.Second
