package types

import "strings"

var levelAliases = map[string]string{
	"WARNING":   "WARN",
	"ERR":       "ERROR",
	"CRIT":      "CRITICAL",
	"EMERGENCY": "EMERG",
}

// levels which classify a record as an error
var errorLevels = map[string]struct{}{
	"ERROR":    {},
	"FATAL":    {},
	"CRITICAL": {},
	"EMERG":    {},
	"ALERT":    {},
	"PANIC":    {},
	"SEVERE":   {},
}

// NormalizeLevel upper-cases a level token and folds common aliases, e.g. "warning" -> "WARN"
func NormalizeLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	if alias, ok := levelAliases[level]; ok {
		return alias
	}
	return level
}

// IsErrorLevel reports whether a level (in any case or alias form) is an error level
func IsErrorLevel(level string) bool {
	_, ok := errorLevels[NormalizeLevel(level)]
	return ok
}
