// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the pipeline's runtime options (§6 "Configuration
// options recognized"), decoded and validated the way metricstore.Keys is:
// a package-level struct set to its documented defaults, then overwritten
// by Init from validated JSON.
package config

import (
	"bytes"
	"encoding/json"
	"time"
)

// Subscription names one NATS subject to subscribe to for SHDR ingestion,
// optionally pinning a default device for lines that omit a device prefix.
type Subscription struct {
	SubscribeTo string `json:"subscribe-to"`
	Device      string `json:"device,omitempty"`
}

// NatsServer holds the connection details for the NATS server the ingestion
// adapter dials, mirroring pkg/nats's NatsConfig field-for-field.
type NatsServer struct {
	Address       string `json:"address"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"creds-file-path,omitempty"`
}

// Config holds every option named in §6, with the documented defaults.
type Config struct {
	FilterDuplicates    bool           `json:"filter-duplicates"`
	UpcaseDataItemValue bool           `json:"upcase-data-item-value"`
	RelativeTime        bool           `json:"relative-time"`
	ConversionRequired  bool           `json:"conversion-required"`
	AutoAvailable       bool           `json:"auto-available"`
	ReconnectInterval   string         `json:"reconnect-interval"`
	BufferSize          int            `json:"buffer-size"`
	Nats                NatsServer     `json:"nats"`
	NatsSubscriptions   []Subscription `json:"nats-subscriptions"`
}

const defaultReconnectFallback = 5 * time.Second

// Keys holds the active configuration, matching metricstore.Keys's
// package-level-var-as-singleton pattern.
var Keys = Config{
	FilterDuplicates:    false,
	UpcaseDataItemValue: true,
	RelativeTime:        false,
	ConversionRequired:  true,
	AutoAvailable:       false,
	ReconnectInterval:   "5s",
	BufferSize:          131072,
}

// ReconnectDuration parses ReconnectInterval, falling back to 5s on a
// malformed value rather than failing startup over an adapter-reconnect
// knob (§6 "ReconnectInterval ... external adapter concern").
func (c Config) ReconnectDuration() time.Duration {
	d, err := time.ParseDuration(c.ReconnectInterval)
	if err != nil {
		return defaultReconnectFallback
	}
	return d
}

// Init validates raw against schema and decodes it over a copy of the
// documented defaults, matching metricstore's validate-then-decode Init.
func Init(raw json.RawMessage) (Config, error) {
	if err := Validate(schema, raw); err != nil {
		return Config{}, err
	}
	cfg := Keys
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	Keys = cfg
	return cfg, nil
}
