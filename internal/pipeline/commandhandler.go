// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import "strings"

// SourceOptions holds the per-source state a protocol command can mutate
// (§4.11).
type SourceOptions struct {
	ConversionRequired bool
	RelativeTime       bool
	RealTime           bool
	Device             string
	ShdrVersion        string
}

// CommandHandler applies recognized "* key : value" commands to a source's
// options, forwarding unrecognized keys to an external handler (§4.11).
type CommandHandler struct {
	Options  *SourceOptions
	External func(key, value string)
}

// NewCommandHandler creates a handler over the given mutable options.
func NewCommandHandler(opts *SourceOptions, external func(key, value string)) *CommandHandler {
	return &CommandHandler{Options: opts, External: external}
}

// Handle applies cmd, recognizing the five keys named in §4.11
// case-insensitively.
func (h *CommandHandler) Handle(cmd Command) {
	switch strings.ToLower(cmd.Key) {
	case "conversionrequired":
		h.Options.ConversionRequired = parseBool(cmd.Value, h.Options.ConversionRequired)
	case "relativetime":
		h.Options.RelativeTime = parseBool(cmd.Value, h.Options.RelativeTime)
	case "realtime":
		h.Options.RealTime = parseBool(cmd.Value, h.Options.RealTime)
	case "device":
		h.Options.Device = cmd.Value
	case "shdrversion":
		h.Options.ShdrVersion = cmd.Value
	default:
		if h.External != nil {
			h.External(cmd.Key, cmd.Value)
		}
	}
}

func parseBool(s string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	case "false", "no", "0":
		return false
	default:
		return fallback
	}
}
