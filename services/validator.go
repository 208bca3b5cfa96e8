package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"soundbite/protocol"
	"soundbite/types"
	"strconv"
)

// Validator interface defines the check pipeline a GET command passes
// before extraction runs.
type Validator interface {
	Validate(ctx context.Context, cmd protocol.Command) (types.ValidatedRange, error)
}

// validator implements the Validator interface against a catalog and the
// audio engine.
type validator struct {
	catalog CatalogService
	engine  AudioEngine
}

// NewValidator creates a validator over the given catalog and engine.
func NewValidator(catalog CatalogService, engine AudioEngine) Validator {
	return &validator{catalog: catalog, engine: engine}
}

// Validate runs every check in order and returns the first failure.
// The ordering is part of the protocol contract: clients depend on the
// first-applicable message, so do not reorder.
func (v *validator) Validate(ctx context.Context, cmd protocol.Command) (types.ValidatedRange, error) {
	var zero types.ValidatedRange

	if cmd.Kind == protocol.CmdMalformed {
		return zero, types.NewRequestError(types.ErrMalformedCommand, cmd.Reason)
	}
	if cmd.Kind != protocol.CmdGet {
		return zero, types.NewRequestError(types.ErrMalformedCommand,
			"invalid GET command, usage: GET <filename> <start> <end>")
	}

	entry, ok := v.catalog.Lookup(cmd.Filename)
	if !ok {
		return zero, types.NewRequestError(types.ErrFileNotFound,
			fmt.Sprintf("file '%s' not found", cmd.Filename))
	}

	startSec, err := parseSeconds(cmd.StartRaw)
	if err != nil {
		return zero, types.NewRequestError(types.ErrInvalidTimeFormat,
			"start and end times must be numbers")
	}
	endSec, err := parseSeconds(cmd.EndRaw)
	if err != nil {
		return zero, types.NewRequestError(types.ErrInvalidTimeFormat,
			"start and end times must be numbers")
	}

	if startSec < 0 || endSec < 0 {
		return zero, types.NewRequestError(types.ErrNegativeTime,
			"start and end times must not be negative")
	}

	path := filepath.Join(v.catalog.Dir(), entry.Filename)
	if _, err := os.Stat(path); err != nil {
		return zero, types.NewRequestError(types.ErrFileMissingOnDisk,
			fmt.Sprintf("file '%s' is missing from disk", cmd.Filename))
	}

	// Re-probe at request time: the catalog duration may be stale.
	durationSec, err := v.engine.Probe(ctx, path)
	if err != nil {
		return zero, types.NewRequestError(types.ErrAudioRead,
			fmt.Sprintf("cannot read audio file: %v", err))
	}

	if startSec >= endSec {
		return zero, types.NewRequestError(types.ErrInvalidRange,
			"start time must be less than end time")
	}

	if endSec > durationSec {
		return zero, types.NewRequestError(types.ErrRangeExceedsLength,
			fmt.Sprintf("end time (%g s) exceeds file duration (%g s)", endSec, durationSec))
	}

	startMS := uint64(math.Floor(startSec * 1000))
	endMS := uint64(math.Floor(endSec * 1000))

	// Sub-millisecond ranges can collapse under floor truncation even when
	// startSec < endSec; the validated range must keep StartMS < EndMS.
	if startMS >= endMS {
		return zero, types.NewRequestError(types.ErrInvalidRange,
			"requested excerpt is shorter than one millisecond")
	}

	return types.ValidatedRange{
		Filename: entry.Filename,
		Path:     path,
		Format:   entry.Format,
		StartMS:  startMS,
		EndMS:    endMS,
	}, nil
}

func parseSeconds(token string) (float64, error) {
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite time %q", token)
	}
	return f, nil
}
