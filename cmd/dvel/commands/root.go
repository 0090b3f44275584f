package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var _config = NewDefaultCLIConfig()

// RootCmd is the root command for dvel.
var RootCmd = &cobra.Command{
	Use:              "dvel",
	Short:            "deterministic append-only ledger simulation",
	TraverseChildren: true,
}

func init() {
	RootCmd.PersistentFlags().StringP("datadir", "d", _config.Dvel.DataDir, "Top-level directory for configuration and data")
	RootCmd.PersistentFlags().String("log", _config.Dvel.LogLevel, "debug, info, warn, error, fatal, panic")
	RootCmd.PersistentFlags().String("moniker", _config.Dvel.Moniker, "Optional node name")
	RootCmd.PersistentFlags().Bool("store", _config.Dvel.Store, "Use a Badger-backed ledger store instead of in-memory")
	RootCmd.PersistentFlags().String("db", _config.Dvel.DatabaseDir, "Badger database directory, used when --store is set")
	RootCmd.PersistentFlags().String("trace-dsn", _config.Dvel.TraceDSN, "Postgres DSN to mirror trace rows into, in addition to memory")

	RootCmd.AddCommand(
		NewKeygenCmd(),
		NewSimulateCmd(),
		NewTraceCmd(),
		VersionCmd,
	)
}

func bindFlagsLoadViper(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		return err
	}

	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	viper.SetConfigName("dvel")
	viper.AddConfigPath(_config.Dvel.DataDir)

	if err := viper.ReadInConfig(); err == nil {
		_config.Dvel.Logger().Debugf("using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return err
	}

	return viper.Unmarshal(_config)
}

// Execute runs the root command, printing any returned error and exiting
// non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
