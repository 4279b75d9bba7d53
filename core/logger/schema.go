package logger

import "strings"

const (
	// LevelDebug is the debug severity level name.
	LevelDebug = "DEBUG"
	// LevelInfo is the info severity level name.
	LevelInfo = "INFO"
	// LevelWarn is the warning severity level name.
	LevelWarn = "WARN"
	// LevelError is the error severity level name.
	LevelError = "ERROR"
)

var allowedLevels = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

const (
	statusOK    = "ok"
	statusError = "fail"
)

var allowedStatus = map[string]struct{}{
	"ok":    {},
	"fail":  {},
	"skip":  {},
	"retry": {},
}

var allowedOutcome = map[string]struct{}{
	"ok":        {},
	"fail":      {},
	"cancelled": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := allowedStatus[status]; ok {
		return status
	}
	return status
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if outcome == "" {
		return "", false
	}
	_, ok := allowedOutcome[outcome]
	return outcome, ok
}

// defaultKeyOrder pins the leading columns of every log line so lines
// across components align; domain fields follow the correlation block.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"plan_id",
	"proof_kind",
	"target_id",
	"operator_id",
	"pending_count",
	"delivered",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempts",
	"backoff_ms",
}
