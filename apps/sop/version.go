//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at link time.
var Version = "devel"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sop",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion() {
	fmt.Printf("sop %s (%s)\n", Version, runtime.Version())
	info, ok := debug.ReadBuildInfo()
	if !ok || !viper.GetBool("verbose") {
		return
	}
	fmt.Printf("\nDependencies:\n\n")
	for _, dep := range info.Deps {
		fmt.Printf("  %s %s\n", dep.Path, dep.Version)
	}
}
