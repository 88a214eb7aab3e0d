/* YaNCS - Yet another NDN Congestion Simulator
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package cmd

import (
	"github.com/named-data/yancs/sim/core"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var logLevel string

var CmdYancs = &cobra.Command{
	Use:     "yancs SCENARIO-FILE",
	Short:   "Yet another NDN Congestion Simulator",
	Version: Version,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

func init() {
	CmdYancs.Flags().StringVar(&logLevel, "log-level", "", "Override the scenario's log level")
}

func run(cmd *cobra.Command, args []string) {
	config, err := core.LoadConfig(args[0])
	if err != nil {
		core.Log.Fatal(nil, "Failed to load scenario", "err", err)
	}

	levelStr := config.Core.LogLevel
	if logLevel != "" {
		levelStr = logLevel
	}
	level, err := core.ParseLevel(levelStr)
	if err != nil {
		core.Log.Fatal(nil, "Invalid log level", "err", err)
	}
	core.Log.SetLevel(level)

	yancs, err := NewYancs(config)
	if err != nil {
		core.Log.Fatal(nil, "Failed to build scenario", "err", err)
	}
	if err := yancs.Run(); err != nil {
		core.Log.Fatal(yancs, "Scenario failed", "err", err)
	}
}
