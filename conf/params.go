//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package conf

import (
	"net"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/markkurossi/sop/node"
)

// Default values.
const (
	DefaultListen = "localhost:8180"
	DefaultDealer = "localhost:8180"
)

// Params define the runtime parameters of the tools. They are
// constructed from a viper object.
type Params struct {
	Verbose  bool
	DevMode  bool
	Listen   string
	Dealer   string
	Database node.DBParams
}

// NewParams gets the parameters from the viper object.
func NewParams(vip *viper.Viper) (*Params, error) {
	params := &Params{
		Verbose: vip.GetBool("verbose"),
		DevMode: vip.GetBool("devMode"),
		Listen:  vip.GetString("listen"),
		Dealer:  vip.GetString("dealer"),
	}
	if len(params.Listen) == 0 {
		params.Listen = DefaultListen
	}
	if len(params.Dealer) == 0 {
		params.Dealer = DefaultDealer
	}

	rawAddr := vip.GetString("database.address")
	if len(rawAddr) > 0 {
		addr, port, err := net.SplitHostPort(rawAddr)
		if err != nil {
			return nil, errors.Wrapf(err, "database address %s", rawAddr)
		}
		params.Database.Address = addr
		params.Database.Port = port
	}
	params.Database.Name = vip.GetString("database.name")
	params.Database.Username = vip.GetString("database.username")
	params.Database.Password = vip.GetString("database.password")
	params.Database.DevMode = params.DevMode

	return params, nil
}

// DefaultConfigFile returns the default configuration file
// $HOME/.sop/sop.yaml.
func DefaultConfigFile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sop", "sop.yaml"), nil
}
