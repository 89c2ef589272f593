package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uyuni-project/lcdconf/alerts"
	"github.com/uyuni-project/lcdconf/storage"
	yaml "gopkg.in/yaml.v2"
)

var (
	version   string
	cfgFile   string
	cfgString string
	logLevel  string
)

const defaultConfigFile = "lcdconf.yaml"

// envPrefix prefixes environment variables overriding S3 credentials, eg. LCDCONF_BUCKET
const envPrefix = "LCDCONF"

// Config maps the configuration in lcdconf.yaml
type Config struct {
	Storage storage.StorageConfig
	Alerts  alerts.AlertsConfig
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "lcdconf",
	Short: "Converts LCDproc configuration files into key-value stores",
	Long: `lcdconf reads the configuration file of an LCDproc tool (LCDd, lcdproc, lcdvc, lcdexec)
and writes it as hierarchical keys into a configuration store, an S3 bucket or a badger database.`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Printf("lcdconf %s\n", version)
			os.Exit(0)
		}

		cmd.Help()
	},
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(versionTag string) {
	version = versionTag
	if err := RootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func init() {
	// all sub-commands will have access to these flags
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	// local flags
	RootCmd.Flags().BoolP("version", "v", false, "Print lcdconf version")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	// first, try via environment variable
	ev := os.Getenv(envPrefix + "_CONFIG")
	if ev != "" {
		cfgString = ev
		log.Info("Using configuration from $" + envPrefix + "_CONFIG")
		return nil
	}

	// second, try from the commandline flag
	if cfgFile != "" {
		bytes, err := os.ReadFile(cfgFile)
		if errors.Is(err, os.ErrNotExist) && cfgFile == defaultConfigFile {
			log.Debug("No config file found, using defaults", "path", cfgFile)
			cfgString = ""
			return nil
		}
		if err != nil {
			return err
		}
		cfgString = string(bytes)
		log.Info("Using config file", "path", cfgFile)
	}
	return nil
}

func parseConfig(configString string) (Config, error) {
	config := Config{}
	if err := yaml.Unmarshal([]byte(configString), &config); err != nil {
		return config, fmt.Errorf("configuration parse error: %v", err)
	}
	applyEnvOverrides(&config.Storage)

	switch config.Storage.Type {
	case "":
		config.Storage.Type = "file"
	case "file":
	case "s3":
		s := config.Storage
		if s.AccessKeyID == "" || s.SecretAccessKey == "" || s.Region == "" || s.Bucket == "" {
			return config, errors.New(`configuration parse error: s3 storage needs the following values:

        access_key_id: your AWS Access Key ID
        secret_access_key: your AWS Secret Access Key
        region: the AWS region the S3 bucket is located in (eg. us-east-1)
        bucket: the S3 bucket ID

        You can set those either via the config file or LCDCONF_ prefixed, uppercased environment variables.`)
		}
	case "badger":
		if config.Storage.Path == "" {
			return config, errors.New("configuration parse error: badger storage needs a path")
		}
	default:
		return config, fmt.Errorf("configuration parse error: unrecognised storage type")
	}
	return config, nil
}

// applyEnvOverrides replaces S3 settings with LCDCONF_ environment variables when set
func applyEnvOverrides(config *storage.StorageConfig) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	overrides := map[string]*string{
		"access_key_id":     &config.AccessKeyID,
		"secret_access_key": &config.SecretAccessKey,
		"region":            &config.Region,
		"bucket":            &config.Bucket,
	}
	for key, field := range overrides {
		v.BindEnv(key)
		if v.IsSet(key) {
			*field = v.GetString(key)
		}
	}
}
