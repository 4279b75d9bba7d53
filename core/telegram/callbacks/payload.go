package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadInt64 parses the callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(CallbackPayload(c)), 10, 64)
}

// PayloadString returns the trimmed callback payload.
func PayloadString(c tele.Context) string {
	return strings.TrimSpace(CallbackPayload(c))
}
