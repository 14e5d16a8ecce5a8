package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a T from the file named by its flag, or from stdin
// when the flag is unset and stdin is piped.
type FileReader[T any] struct {
	fileFlagValue string
	stdin         io.Reader
	stdinIsTTY    func() bool
}

// Flag returns the --file flag bound to the reader.
func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "path to JSON file (reads from stdin if not provided)",
		Destination: &fr.fileFlagValue,
	}
}

// IsSet reports whether a file path was given.
func (fr *FileReader[T]) IsSet() bool {
	return fr.fileFlagValue != ""
}

// Piped reports whether input is available without a file, meaning stdin is
// not a terminal.
func (fr *FileReader[T]) Piped() bool {
	return !fr.isTTY()
}

func (fr *FileReader[T]) isTTY() bool {
	if fr.stdinIsTTY != nil {
		return fr.stdinIsTTY()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Read decodes the input. Unknown fields are rejected.
func (fr *FileReader[T]) Read() (T, error) {
	var reader io.Reader
	var input T

	switch {
	case fr.fileFlagValue != "":
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	case fr.isTTY():
		return input, fmt.Errorf("no input provided (stdin is a terminal); use -f flag or pipe JSON input")
	case fr.stdin != nil:
		reader = fr.stdin
	default:
		reader = os.Stdin
	}

	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
