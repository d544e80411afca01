// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shdr-stream/obspipeline/internal/config"
	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/pipeline"
	"github.com/shdr-stream/obspipeline/internal/sink"
)

var flagReplayFile string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Feed a recorded SHDR line file (or stdin) through one source and print the resulting observations as JSON lines",
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&flagReplayFile, "file", "", "path to a file of newline-delimited SHDR lines; reads stdin if empty")
}

func runReplay(cmd *cobra.Command, args []string) error {
	var cfg config.Config
	if raw, err := os.ReadFile(flagConfigFile); err == nil {
		if cfg, err = config.Init(json.RawMessage(raw)); err != nil {
			return err
		}
	} else {
		cfg = config.Keys
	}

	model, err := devicemodel.Load(flagModelFile)
	if err != nil {
		return err
	}

	rt, err := pipeline.NewRuntime(model, cfg)
	if err != nil {
		return err
	}

	out := sink.NewJSONLines(rt.Buffer, os.Stdout)

	var r io.Reader = os.Stdin
	if flagReplayFile != "" {
		f, err := os.Open(flagReplayFile)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	src := rt.Source("replay", nil)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		src.ProcessLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	src.Close()
	out.Close()
	return nil
}
