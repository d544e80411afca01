// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"strings"

	"github.com/shdr-stream/obspipeline/internal/obslog"
)

// multilinePrefix opens a multi-line continuation block (§4.2).
const multilinePrefix = "--multiline--"

// Line is a tokenized SHDR data line: the raw timestamp candidate (possibly
// empty) plus the '|'-delimited fields that follow it.
type Line struct {
	TimestampToken string
	Fields         []string
}

// Command is a tokenized "* key : value" protocol line (§4.11).
type Command struct {
	Key   string
	Value string
}

// Tokenizer splits raw adapter lines into Lines and Commands, absorbing the
// multi-line continuation convention across calls to Feed (§4.2).
type Tokenizer struct {
	source string // used only for the once-per-source malformed-line log (§7)

	inMultiline  bool
	multilineEnd string
	pending      []string // fields accumulated so far for the current data line
	multilineBuf strings.Builder
	multilineIdx int // index into pending of the field being continued

	warnedMalformed bool
}

// NewTokenizer creates a Tokenizer for a named adapter source, used only to
// attribute the rate-limited malformed-line diagnostic (§7).
func NewTokenizer(source string) *Tokenizer {
	return &Tokenizer{source: source}
}

// Feed tokenizes one raw line (without its trailing newline). It returns
// exactly one of (line, command, nil) for a complete, non-continuation
// input, or all three zero values while a multi-line block is still open.
func (tz *Tokenizer) Feed(raw string) (line *Line, cmd *Command, err error) {
	if tz.inMultiline {
		if raw == tz.multilineEnd {
			tz.pending[tz.multilineIdx] = tz.multilineBuf.String()
			tz.inMultiline = false
			fields := tz.pending
			tz.pending = nil
			tz.multilineBuf.Reset()
			return tz.finishLine(fields)
		}
		if tz.multilineBuf.Len() > 0 {
			tz.multilineBuf.WriteByte('\n')
		}
		tz.multilineBuf.WriteString(raw)
		return nil, nil, nil
	}

	if strings.HasPrefix(raw, "*") {
		return nil, tz.parseCommand(raw), nil
	}

	tokens := strings.Split(raw, "|")

	// A multi-line sentinel is only meaningful as the final token on the
	// line: "...|--multiline--TERM".
	last := tokens[len(tokens)-1]
	if strings.HasPrefix(last, multilinePrefix) {
		term := strings.TrimPrefix(last, multilinePrefix)
		tz.inMultiline = true
		tz.multilineEnd = term
		tz.pending = tokens[:len(tokens)-1]
		tz.multilineIdx = len(tz.pending) - 1
		tz.multilineBuf.Reset()
		return nil, nil, nil
	}

	return tz.finishLine(tokens)
}

func (tz *Tokenizer) finishLine(tokens []string) (*Line, *Command, error) {
	if len(tokens) < 2 {
		if !tz.warnedMalformed {
			obslog.Warnf("[PIPELINE]> malformed line from source %q (need timestamp + >=1 field): %q", tz.source, strings.Join(tokens, "|"))
			tz.warnedMalformed = true
		}
		return nil, nil, nil
	}
	return &Line{TimestampToken: tokens[0], Fields: tokens[1:]}, nil, nil
}

func (tz *Tokenizer) parseCommand(raw string) *Command {
	body := strings.TrimSpace(strings.TrimPrefix(raw, "*"))
	key, value, _ := strings.Cut(body, ":")
	return &Command{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}
}
