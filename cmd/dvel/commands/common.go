package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig binds cmd's flags into viper, merges any on-disk config file
// found under --datadir, and unmarshals the result into _config.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := bindFlagsLoadViper(cmd); err != nil {
		return err
	}

	_config.Dvel.SetDataDir(_config.Dvel.DataDir)

	_config.Dvel.Logger().WithFields(logrus.Fields{
		"datadir": _config.Dvel.DataDir,
		"log":     _config.Dvel.LogLevel,
		"store":   _config.Dvel.Store,
		"nodes":   _config.Nodes,
		"ticks":   _config.Ticks,
	}).Debug("loaded configuration")

	return nil
}
