// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command obsagent runs the observation pipeline as a standalone agent:
// "serve" ingests SHDR lines from NATS subjects and exposes the ring
// buffer over Prometheus and a JSON-lines replay log, "replay" feeds a
// recorded SHDR file through one source for offline inspection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigFile string
	flagModelFile  string
)

var rootCmd = &cobra.Command{
	Use:   "obsagent",
	Short: "Shop-floor observation pipeline agent",
	Long: `obsagent tokenizes, maps, filters, and sequences machine telemetry
carried as SHDR lines, delivering the resulting observations into a
shared ring buffer that sinks can subscribe to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "./config.json", "path to the pipeline's JSON configuration")
	rootCmd.PersistentFlags().StringVar(&flagModelFile, "model", "./model.yaml", "path to the device model YAML document")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
