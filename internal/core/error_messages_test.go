package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{name: "body too large", err: errors.New("http: request body too large"), wantCode: "FILE001"},
		{name: "wrong delimiter", err: fmt.Errorf("load csv: %w", ErrWrongDelimiter), wantCode: "FILE002"},
		{name: "csv parse error", err: errors.New(`parse error on line 3, field 1: bare " in non-quoted-field`), wantCode: "FILE002"},
		{name: "extra fields", err: errors.New("line 4: expected 2 fields, saw 3"), wantCode: "FILE002"},
		{name: "encoding", err: fmt.Errorf("read row 2: %w", ErrInvalidEncoding), wantCode: "FILE003"},
		{name: "no file", err: errors.New("no file provided"), wantCode: "FILE004"},
		{name: "empty file", err: ErrEmptyFile, wantCode: "FILE005"},
		{name: "unknown column", err: fmt.Errorf("sort key 1: %w: %q", ErrUnknownColumn, "Nope"), wantCode: "FLT001"},
		{name: "unknown condition", err: errors.New(`unknown condition "between"`), wantCode: "FLT002"},
		{name: "bad logic", err: errors.New(`invalid logic operator "XOR"`), wantCode: "FLT003"},
		{name: "session", err: ErrSessionNotFound, wantCode: "SES001"},
		{name: "busy", err: ErrTooManyUploads, wantCode: "UPL002"},
		{name: "cancelled", err: context.Canceled, wantCode: "UPL004"},
		{name: "deadline", err: context.DeadlineExceeded, wantCode: "UPL005"},
		{name: "export format", err: errors.New(`unsupported export format "pdf"`), wantCode: "EXP001"},
		{name: "rate limit", err: errors.New("rate limit exceeded"), wantCode: "RATE001"},
		{name: "unknown error returns default", err: errors.New("some random internal error"), wantCode: "ERR000"},
		{name: "case insensitive matching", err: errors.New("SESSION NOT FOUND"), wantCode: "SES001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() message is empty")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyFile)

	expected := "The uploaded file is empty (Code: FILE005). Please upload a CSV file with a header row"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrUnknownColumn, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("filter 2: %w", ErrUnknownColumn)
		userErr := NewUserError(techErr)

		if !strings.Contains(userErr.Error(), "column that is not in the file") {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrUnknownColumn) {
			t.Error("Unwrap() should expose the original error")
		}
	})

	t.Run("formats its own message even when wrapped", func(t *testing.T) {
		err := fmt.Errorf("cli: %w", NewUserError(ErrEmptyFile))
		if got := FormatUserError(err); !strings.Contains(got, "(Code: FILE005)") {
			t.Errorf("FormatUserError() = %q", got)
		}
	})
}
