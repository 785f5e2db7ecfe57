package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the upload size limit
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV: File is not a valid semicolon-delimited CSV
//	          Patterns: "semicolon-delimited", "parse error", "expected"+"fields"
//	FILE003 - Encoding error: File is not UTF-8
//	          Patterns: "not valid utf-8"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The uploaded file has no header row
//	          Patterns: "file is empty"
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - Unknown column: A sort key or filter names a column the file lacks
//	         Patterns: "unknown column"
//	FLT002 - Unknown condition: Filter condition is not one of equals/contains/gt/lt/range
//	         Patterns: "unknown condition"
//	FLT003 - Invalid logic: Logic operator is not AND or OR
//	         Patterns: "invalid logic operator"
//	FLT004 - Invalid request: Request document could not be decoded
//	         Patterns: "decode request"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session expired: Report session not found
//	         Patterns: "session not found"
//	SES002 - Session limit: Too many open reports
//	         Patterns: "session limit"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many reports processing
//	         Patterns: "too many concurrent"
//	UPL004 - Request cancelled: Request was cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout: Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unsupported format: Export format is not xlsx, csv, or arrow
//	         Patterns: "unsupported export format"
//	EXP002 - Export failed: The file could not be written
//	         Patterns: "export failed"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
// All patterns in patterns must appear in the lowercased error text.
type errorPattern struct {
	patterns []string
	msg      UserMessage
}

func (ep errorPattern) matches(errStr string) bool {
	for _, p := range ep.patterns {
		if !strings.Contains(errStr, p) {
			return false
		}
	}
	return true
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the upload size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid semicolon-delimited CSV",
		Action:  "Export the report with ';' as the separator and consistent columns",
		Code:    "FILE002",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// File errors
	{patterns: []string{"file too large"}, msg: msgTooLarge},
	{patterns: []string{"request body too large"}, msg: msgTooLarge},
	{patterns: []string{"semicolon-delimited"}, msg: msgInvalidCSV},
	{patterns: []string{"parse error"}, msg: msgInvalidCSV},
	{patterns: []string{"expected", "fields"}, msg: msgInvalidCSV},
	{
		patterns: []string{"not valid utf-8"},
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		patterns: []string{"no file provided"},
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		patterns: []string{"file is empty"},
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
		},
	},

	// Filter and sort errors
	{
		patterns: []string{"unknown column"},
		msg: UserMessage{
			Message: "A sort or filter refers to a column that is not in the file",
			Action:  "Pick a column from the report header",
			Code:    "FLT001",
		},
	},
	{
		patterns: []string{"unknown condition"},
		msg: UserMessage{
			Message: "Unknown filter condition",
			Action:  "Use equals, contains, gt, lt, or range",
			Code:    "FLT002",
		},
	},
	{
		patterns: []string{"invalid logic operator"},
		msg: UserMessage{
			Message: "Invalid filter logic",
			Action:  "Use AND or OR",
			Code:    "FLT003",
		},
	},
	{
		patterns: []string{"decode request"},
		msg: UserMessage{
			Message: "The report request could not be read",
			Action:  "Check the request document syntax",
			Code:    "FLT004",
		},
	},

	// Session errors
	{
		patterns: []string{"session not found"},
		msg: UserMessage{
			Message: "Report session not found",
			Action:  "The report may have expired. Please upload the file again",
			Code:    "SES001",
		},
	},
	{
		patterns: []string{"session limit"},
		msg: UserMessage{
			Message: "Too many open reports",
			Action:  "Close a report or wait for old ones to expire",
			Code:    "SES002",
		},
	},

	// Upload errors
	{
		patterns: []string{"too many concurrent"},
		msg: UserMessage{
			Message: "System is busy processing other reports",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		patterns: []string{"context canceled"},
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		patterns: []string{"context deadline exceeded"},
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or fewer filters",
			Code:    "UPL005",
		},
	},

	// Export errors
	{
		patterns: []string{"unsupported export format"},
		msg: UserMessage{
			Message: "Unsupported export format",
			Action:  "Choose xlsx, csv, or arrow",
			Code:    "EXP001",
		},
	},
	{
		patterns: []string{"export failed"},
		msg: UserMessage{
			Message: "The export file could not be written",
			Action:  "Please try again",
			Code:    "EXP002",
		},
	},

	// Rate limiting
	{
		patterns: []string{"rate limit"},
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, a generic fallback message with code ERR000 is
// returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if ep.matches(errStr) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
// A *UserError anywhere in err's chain supplies the message directly.
func FormatUserError(err error) string {
	msg := MapError(err)
	var ue *UserError
	if errors.As(err, &ue) {
		msg = ue.User
	}
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern, as opposed to
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
