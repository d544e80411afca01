// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

// schema validates the pipeline's JSON configuration before it is decoded
// (§6 "Configuration options recognized"), the same inline-JSON-Schema
// idiom as metricstore.configSchema.
const schema = `{
  "type": "object",
  "description": "Configuration for the observation pipeline.",
  "properties": {
    "filter-duplicates": {
      "description": "Drop observations structurally equal to the last delivered value for their data item.",
      "type": "boolean"
    },
    "upcase-data-item-value": {
      "description": "Upcase Event string values before delivery.",
      "type": "boolean"
    },
    "relative-time": {
      "description": "Interpret source timestamps as monotonically increasing offsets from an internally pinned base.",
      "type": "boolean"
    },
    "conversion-required": {
      "description": "Run the unit converter for data items whose nativeUnits differ from units.",
      "type": "boolean"
    },
    "auto-available": {
      "description": "Synthesize an AVAILABLE event on first line from a source.",
      "type": "boolean"
    },
    "reconnect-interval": {
      "description": "Adapter reconnect backoff, e.g. '5s'.",
      "type": "string"
    },
    "buffer-size": {
      "description": "Ring buffer capacity; must be a power of two.",
      "type": "integer",
      "minimum": 1
    },
    "nats": {
      "description": "Connection details for the NATS server SHDR lines are ingested from.",
      "type": "object",
      "properties": {
        "address": {"type": "string"},
        "username": {"type": "string"},
        "password": {"type": "string"},
        "creds-file-path": {"type": "string"}
      }
    },
    "nats-subscriptions": {
      "description": "NATS subjects to subscribe to for SHDR line ingestion.",
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "subscribe-to": {"type": "string"},
          "device": {"type": "string"}
        },
        "required": ["subscribe-to"]
      }
    }
  }
}`
