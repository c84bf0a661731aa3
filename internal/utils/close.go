package utils

import (
	"io"

	"github.com/MrSnakeDoc/tinylink/internal/logger"
)

// CloseLogged closes c and logs a failure under name. Meant for defer.
func CloseLogged(c io.Closer, log logger.Logger, name string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", name), logger.Error(err))
	}
}
