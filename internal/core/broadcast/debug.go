package broadcast

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers hooks that log channel activity at debug
// level and subscriber panics at error level.
func RegisterDebugLogger[T any](c *Channel[T], logger zerolog.Logger) {
	c.OnPublish(func(_ T, handlers int) {
		logger.Debug().Int("handlers", handlers).Msg("broadcast delivered")
	})

	c.OnSubscribe(func(id uint64) {
		logger.Debug().Uint64("subscriber", id).Msg("subscriber registered")
	})

	c.OnPanic(func(id uint64, recovered any) {
		logger.Error().
			Uint64("subscriber", id).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}
