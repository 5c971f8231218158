//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"

	"github.com/markkurossi/sop/conf"
	"github.com/markkurossi/sop/env"
)

var (
	cfgFile string
	verbose bool
	devMode bool
)

var rootCmd = &cobra.Command{
	Use:   "sop",
	Short: "Non-interactive sum-of-products over masked shares",
	Long: `The sop tool computes sums of products of private inputs. A dealer
masks the inputs and hands the masked shares and the per-term
compensating exponents to the nodes. The result is reconstructed from
the node data without any interaction between the nodes.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if viper.GetBool("verbose") {
			jww.ERROR.Printf("%+v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.sop/sop.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.PersistentFlags().BoolVar(&devMode, "devMode", false,
		"Allow in-memory node store without a database")

	err := viper.BindPFlag("verbose",
		rootCmd.PersistentFlags().Lookup("verbose"))
	handleBindingError(err, "verbose")

	err = viper.BindPFlag("devMode",
		rootCmd.PersistentFlags().Lookup("devMode"))
	handleBindingError(err, "devMode")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in the config file and the environment variables.
// A missing default config file is not an error.
func initConfig() {
	viper.SetEnvPrefix("sop")
	viper.AutomaticEnv()

	if cfgFile == "" {
		path, err := conf.DefaultConfigFile()
		if err != nil {
			jww.WARN.Printf("Unable to resolve home directory: %s\n", err)
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}
		cfgFile = path
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		jww.FATAL.Panicf("Unable to read config file (%s): %s", cfgFile, err)
	}
	jww.DEBUG.Printf("Using config file %s\n", cfgFile)
}

// initLog initializes logging thresholds.
func initLog() {
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelInfo)
	}
}

func getParams() (*conf.Params, *env.Config, error) {
	params, err := conf.NewParams(viper.GetViper())
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid parameters")
	}
	return params, &env.Config{
		Verbose: params.Verbose,
	}, nil
}
