package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ugcPolicy strips scripts and unsafe markup from user-written text. Policies are
// safe for concurrent use once built.
var ugcPolicy = bluemonday.UGCPolicy()

func sanitize(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}
