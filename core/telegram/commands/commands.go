// Package commands defines the command registration metadata.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command binds a handler to its menu description and access rules.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
