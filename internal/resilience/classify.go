package resilience

// #region imports
import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"os/exec"
	"strconv"
)

// #endregion

// #region sentinels

// Sentinel error kinds collaborators wrap their failures with so the
// classifier can rank them.
var (
	// ErrInterrupted marks process-level termination signals.
	ErrInterrupted = errors.New("interrupted")
	// ErrConnection marks connectivity failures to an external service.
	ErrConnection = errors.New("connection failed")
	// ErrTimeout marks an external call that exceeded its deadline.
	ErrTimeout = errors.New("timed out")
	// ErrMissing marks a missing file, process, or resource.
	ErrMissing = errors.New("missing resource")
	// ErrInvalid marks value or type mismatches in collaborator output.
	ErrInvalid = errors.New("invalid value")
)

// #endregion

// #region classify

// Classify ranks an error: fatal process-level signals are CRITICAL;
// connectivity, timeouts, and missing resources are HIGH; value and
// type mismatches are MEDIUM; everything else is LOW.
func Classify(err error) Severity {
	switch {
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return SeverityCritical
	case errors.Is(err, ErrConnection),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrMissing),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, os.ErrNotExist),
		isNetError(err):
		return SeverityHigh
	case errors.Is(err, ErrInvalid), isValueError(err):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Kind returns a stable label for histogram bucketing.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, ErrConnection), isNetError(err):
		return "connection"
	case errors.Is(err, ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrMissing), errors.Is(err, os.ErrNotExist):
		return "missing_resource"
	case errors.Is(err, ErrInvalid), isValueError(err):
		return "invalid_value"
	case isExitError(err):
		return "exit_status"
	default:
		return "unclassified"
	}
}

// #endregion

// #region helpers

func isNetError(err error) bool {
	var ne net.Error
	return errors.As(err, &ne)
}

func isValueError(err error) bool {
	var numErr *strconv.NumError
	var typeErr *json.UnmarshalTypeError
	var synErr *json.SyntaxError
	return errors.As(err, &numErr) || errors.As(err, &typeErr) || errors.As(err, &synErr)
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// #endregion
