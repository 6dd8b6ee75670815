// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"fmt"
	"iter"
	"strings"
)

// =============================================================================
// FRAME TYPES
// =============================================================================

// DataPrefix marks a line that carries a JSON payload.
const DataPrefix = "data:"

// DoneMarker is the completion token.
const DoneMarker = "DONE"

// FrameKind distinguishes payload frames from the completion frame.
type FrameKind int

const (
	// FrameData carries a decoded payload.
	FrameData FrameKind = iota

	// FrameDone signals that no more frames follow.
	FrameDone
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case FrameData:
		return "data"
	case FrameDone:
		return "done"
	default:
		return "unknown"
	}
}

// Frame is one line of the stream.
type Frame struct {
	Kind    FrameKind
	Payload Payload

	// Line is the 1-based line number within the parsed buffer.
	Line int
}

// DecodeError describes a data line whose payload could not be decoded.
type DecodeError struct {
	Line int
	Text string
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: decode payload: %v", e.Line, e.Err)
}

// Unwrap returns the underlying JSON error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// =============================================================================
// PARSER
// =============================================================================

// Parser splits raw stream text into frames. The zero value is ready to use.
type Parser struct {
	// OnMalformed is called for each data line that fails to decode.
	// The line is skipped either way.
	OnMalformed func(*DecodeError)

	// OnControl is called for bracketed step markers such as [DONE_STEP].
	OnControl func(marker string)
}

// Frames parses buf with a zero Parser.
func Frames(buf string) iter.Seq[Frame] {
	var p Parser
	return p.Frames(buf)
}

// Frames returns the frames in buf in order. Iteration ends after a FrameDone.
// Blank lines and lines that are neither data nor completion are ignored.
func (p *Parser) Frames(buf string) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		n := 0
		for line := range strings.Lines(buf) {
			n++
			line = strings.TrimRight(line, "\r\n")
			if strings.TrimSpace(line) == "" {
				continue
			}

			body, isData := strings.CutPrefix(line, DataPrefix)
			if !isData {
				if strings.Contains(line, DoneMarker) {
					yield(Frame{Kind: FrameDone, Line: n})
					return
				}
				continue
			}

			body = strings.TrimSpace(body)
			switch {
			case body == "":
				continue
			case body == DoneMarker || body == "["+DoneMarker+"]":
				yield(Frame{Kind: FrameDone, Line: n})
				return
			case isControl(body):
				if p.OnControl != nil {
					p.OnControl(body)
				}
				continue
			}

			payload, err := Decode([]byte(body))
			if err != nil {
				if p.OnMalformed != nil {
					p.OnMalformed(&DecodeError{Line: n, Text: body, Err: err})
				}
				continue
			}
			if !yield(Frame{Kind: FrameData, Payload: payload, Line: n}) {
				return
			}
		}
	}
}

// isControl reports whether body is a bracketed marker like [DONE_GEN].
func isControl(body string) bool {
	if len(body) < 3 || body[0] != '[' || body[len(body)-1] != ']' {
		return false
	}
	for _, r := range body[1 : len(body)-1] {
		if !(r == '_' || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
