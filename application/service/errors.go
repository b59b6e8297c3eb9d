package service

import (
	"errors"
	"log/slog"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("guildhall: client is closed")

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
