package report

import "strings"

var filenameReplacer = strings.NewReplacer(
	".", "_",
	":", "_",
	"/", "_",
	"\\", "_",
	" ", "_",
	"[", "",
	"]", "",
	"%", "_",
)

// sanitizeFilename makes a target usable as a path component.
func sanitizeFilename(s string) string {
	return filenameReplacer.Replace(s)
}
