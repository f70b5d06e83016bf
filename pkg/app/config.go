package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/celdash/pkg/log"
)

const configFlagName = "config"

var cfgFile string

// EnvPrefix prefixes the environment variables that override options,
// e.g. CELDASH_FLEET_DATABASE for --fleet.database.
const EnvPrefix = "CELDASH"

func addConfigFlag(basename string, fs *pflag.FlagSet) {
	fs.StringVarP(&cfgFile, configFlagName, "c", cfgFile,
		fmt.Sprintf("Read configuration from the specified file (YAML or JSON), e.g. %s.yaml.", basename))
}

// loadConfig reads the config file, when given, and the environment into v.
// Flags are bound by the caller so that explicitly set flags win.
func loadConfig(v *viper.Viper, basename string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}

	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
	}
	fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())

	return nil
}

// watchConfig re-applies the log level whenever the config file changes.
// Other options take effect on restart.
func watchConfig(v *viper.Viper) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := v.GetString("log.level")
		log.SetLevel(level)
		log.Info("Configuration file changed", "file", e.Name, "op", e.Op.String(), "log.level", level)
	})
	v.WatchConfig()
}
