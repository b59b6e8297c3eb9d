package guildhall

import (
	"errors"
	"fmt"

	"github.com/emberline/guildhall/application/service"
	"github.com/emberline/guildhall/infrastructure/provider"
)

var (
	// ErrNoDatabase is returned when no database option was given.
	ErrNoDatabase = errors.New("guildhall: no database configured")

	// ErrClientClosed is returned when a closed client is used or closed again.
	ErrClientClosed = service.ErrClientClosed

	// ErrExtractionDisabled is returned by imports when no language model
	// endpoint is configured. It matches provider.ErrUnsupportedOperation.
	ErrExtractionDisabled = fmt.Errorf("guildhall: no language model configured: %w", provider.ErrUnsupportedOperation)
)
