package tracker

import (
	"errors"
	"fmt"

	"github.com/rpggio/haulboard/internal/codec"
	"github.com/rpggio/haulboard/internal/store"
)

var (
	// ErrRowNotFound indicates the row doesn't exist.
	ErrRowNotFound = errors.New("tracking row not found")
	// ErrUnknownColumn indicates a cell key outside the column configuration.
	ErrUnknownColumn = errors.New("unknown tracking column")
	// ErrMinimumRows indicates a delete would leave the board without rows.
	ErrMinimumRows = fmt.Errorf("board must keep at least one row: %w", store.ErrMinimumSize)
	// ErrMalformedInput indicates an import or mirror slot that could not be parsed.
	ErrMalformedInput = codec.ErrMalformedInput
)
