// Package logging holds the hit event helpers and the interactive keyboard
// shortcuts of the CLI.
package logging

import (
	"sync"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ShortcutStatusFN builds the event printed when the status key is pressed.
type ShortcutStatusFN func() *zerolog.Event

var (
	statusHookMutex sync.RWMutex
	statusHook      ShortcutStatusFN
)

// levelShortcuts maps keys to the global level they switch to.
var levelShortcuts = map[string]zerolog.Level{
	"t": zerolog.TraceLevel,
	"d": zerolog.DebugLevel,
	"i": zerolog.InfoLevel,
	"w": zerolog.WarnLevel,
	"e": zerolog.ErrorLevel,
}

// RegisterStatusHook sets the status function used by the "s" shortcut.
// Passing nil restores the default.
func RegisterStatusHook(hook ShortcutStatusFN) {
	statusHookMutex.Lock()
	defer statusHookMutex.Unlock()
	statusHook = hook
}

func GetStatusHook() ShortcutStatusFN {
	statusHookMutex.RLock()
	defer statusHookMutex.RUnlock()
	if statusHook != nil {
		return statusHook
	}
	return defaultStatusHook
}

func defaultStatusHook() *zerolog.Event {
	return log.Info().Str("status", "nothing to show")
}

// HandleShortcut applies a single key press. It returns true when the
// listener should stop.
func HandleShortcut(key keys.Key) bool {
	switch key.Code {
	case keys.CtrlC, keys.Escape:
		return true
	case keys.RuneKey:
		pressed := key.String()
		if level, ok := levelShortcuts[pressed]; ok {
			zerolog.SetGlobalLevel(level)
			log.Info().Str("logLevel", level.String()).Msg("New Log level")
			return false
		}
		if pressed == "s" {
			GetStatusHook()().Msg("Status")
		}
	}
	return false
}

// ShortcutListeners blocks reading key presses until Ctrl+C or Escape.
func ShortcutListeners() {
	err := keyboard.Listen(func(key keys.Key) (stop bool, err error) {
		return HandleShortcut(key), nil
	})

	if err != nil {
		log.Error().Err(err).Msg("Failed hooking keyboard bindings")
	}
}
