package dataset

// messages.go maps technical errors to user-facing messages with support codes.
//
// Codes are grouped by category:
//
//	FILE001 - Source file not found
//	FILE002 - Unsupported file extension
//	FMT001  - File layout does not match its format (truncated XML, bad JSON shape)
//	FMT002  - Row does not fit the header
//	FMT003  - Header names a field twice
//	REG001  - Unknown dataset name
//	REG002  - Registry queried before a successful load
//	REG003  - Load requested while another is running
//	REQ001  - Operation cancelled
//	REQ002  - Operation timed out
//	REQ003  - Malformed request parameter (HTTP only)
//	ERR000  - Anything else; check the logs for the technical error
//
// Sentinels are matched with errors.Is in table order, so wrapped errors keep
// their code. Context errors are matched the same way.

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorMapping struct {
	target error
	msg    UserMessage
}

var errorMappings = []errorMapping{
	{
		target: ErrFileNotFound,
		msg: UserMessage{
			Message: "A source data file was not found",
			Action:  "Check the data directory and the configured file names",
			Code:    "FILE001",
		},
	},
	{
		target: ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "A source file has an unsupported extension",
			Action:  "Use .csv, .json, .xlsx or .xml files",
			Code:    "FILE002",
		},
	},
	{
		target: ErrStructuralMismatch,
		msg: UserMessage{
			Message: "A source file does not match its expected layout",
			Action:  "Inspect the file near the reported line",
			Code:    "FMT001",
		},
	},
	{
		target: ErrRowLengthMismatch,
		msg: UserMessage{
			Message: "A row does not match the header",
			Action:  "Fix the row or set load.short_rows to pad",
			Code:    "FMT002",
		},
	},
	{
		target: ErrDuplicateHeader,
		msg: UserMessage{
			Message: "A header names the same field twice",
			Action:  "Rename the duplicate column in the source file",
			Code:    "FMT003",
		},
	},
	{
		target: ErrUnknownDatasetName,
		msg: UserMessage{
			Message: "No dataset with that name exists",
			Action:  "List the available names with 'dataengine names'",
			Code:    "REG001",
		},
	},
	{
		target: ErrNotInitialized,
		msg: UserMessage{
			Message: "Datasets are not loaded",
			Action:  "Run a successful load before querying",
			Code:    "REG002",
		},
	},
	{
		target: ErrLoadInProgress,
		msg: UserMessage{
			Message: "A load is already running",
			Action:  "Wait for the current load to finish",
			Code:    "REG003",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Operation was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs for details",
	Code:    "ERR000",
}

// MapError converts an error into a user-facing message.
// Returns an empty UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
