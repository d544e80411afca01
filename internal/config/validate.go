// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shdr-stream/obspipeline/internal/obslog"
)

// Validate compiles schemaStr and validates instance against it, exactly
// the two-step idiom used by cc-backend's internal/config.Validate and
// pkg/metricstore.configSchema: compile first, fatal on a malformed schema
// (a programmer error), then validate the caller's instance.
func Validate(schemaStr string, instance json.RawMessage) error {
	sch, err := jsonschema.CompileString("schema.json", schemaStr)
	if err != nil {
		obslog.Fatalf("[CONFIG]> %#v", err)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return err
	}
	return sch.Validate(v)
}
