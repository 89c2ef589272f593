package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/uyuni-project/lcdconf/alerts"
	"github.com/uyuni-project/lcdconf/sink"
	"github.com/uyuni-project/lcdconf/source"
	"github.com/uyuni-project/lcdconf/storage"
	"github.com/uyuni-project/lcdconf/translate"
)

// convertCmd represents the convert command
var (
	convertCmd = &cobra.Command{
		Use:   "convert <mode> <infile> [outfile]",
		Short: "Converts a configuration file into store keys",
		Long: `Converts the configuration file of an LCDproc tool into hierarchical keys.

  mode is one of lcdd, lcdproc, lcdvc or lcdexec. Keys are exported to an INI file
  (outfile, --output or the configured path) or written to the configured S3 bucket or
  badger database. You can specify configuration in YAML either in a file or the
  LCDCONF_CONFIG environment variable.

  An example lcdconf.yaml is below:

    storage:
      type: file
      path: /var/lib/lcdconf/lcdexec.ini
      # uncomment to save to an AWS S3 bucket instead of the filesystem
      # type: s3
      # access_key_id: ACCESS_KEY_ID
      # secret_access_key: SECRET_ACCESS_KEY
      # region: us-east-1
      # bucket: lcdconf-bucket-key
      # or to an embedded badger database
      # type: badger
      # path: /var/lib/lcdconf/db
      # root: /sw/lcdproc/lcdexec/#0/current

    # optional section to be notified of failed conversions
    # alerts:
    #   grafana:
    #     enabled: true
    #     apiurl: https://grafana.example.com/api/
    #     apikey: API_KEY
  `,
		Args:         cobra.RangeArgs(2, 3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			config, err := parseConfig(cfgString)
			if err != nil {
				return err
			}

			opts := convertOptions{
				mode:   args[0],
				input:  args[1],
				output: outputPath,
				dryRun: dryRun,
			}
			if len(args) == 3 {
				opts.output = args[2]
			}
			runID := uuid.NewString()
			err = convert(cmd.OutOrStdout(), config, runID, opts)
			if err != nil {
				notify(config.Alerts, runID, opts.input, err)
			}
			return err
		},
	}
	outputPath string
	dryRun     bool
)

type convertOptions struct {
	mode   string
	input  string
	output string
	dryRun bool
}

func init() {
	RootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "export keys to this INI file, overriding the configured storage")
	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the keys instead of writing them")
}

// defaultRoot is the namespace a tool reads its configuration from
func defaultRoot(mode string) string {
	return "/sw/lcdproc/" + mode + "/#0/current"
}

func convert(out io.Writer, config Config, runID string, opts convertOptions) error {
	logger := log.With("run", runID)

	translator, err := translate.Lookup(opts.mode)
	if err != nil {
		return err
	}
	mode := translator.Mode()

	sections, err := source.LoadFile(opts.input)
	if err != nil {
		return err
	}
	logger.Info("Configuration read", "mode", mode, "file", opts.input, "sections", sections.Len())

	m, err := translator.Translate(sections)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.input, err)
	}
	logger.Info("Configuration translated", "keys", m.Len())

	if opts.dryRun {
		return (&sink.Writer{Storage: &printStorage{out: out}}).Write(m)
	}

	storageConfig := config.Storage
	if opts.output != "" {
		storageConfig = storage.StorageConfig{Type: "file", Path: opts.output}
	}
	if storageConfig.Type == "file" && storageConfig.Path == "" {
		storageConfig.Path = mode + ".ini"
	}

	// an INI export is imported below a namespace, other stores need it in the keys
	root := storageConfig.Root
	if root == "" && storageConfig.Type != "file" {
		root = defaultRoot(mode)
	}

	st, err := storage.FromConfig(storageConfig)
	if err != nil {
		return err
	}
	if fs, ok := st.(*storage.FileStorage); ok {
		fs.SetHeader(fmt.Sprintf("lcdconf %s export of %s, run %s", mode, opts.input, runID))
	}

	if err = (&sink.Writer{Storage: st, Root: root}).Write(m); err != nil {
		return err
	}

	if storageConfig.Type == "file" {
		fmt.Fprintf(out, "Success: Please import '%s' with ini into '%s'\n", storageConfig.Path, defaultRoot(mode))
	} else {
		fmt.Fprintf(out, "Success: %d keys written to %s storage under '%s'\n", m.Len(), storageConfig.Type, root)
	}
	return nil
}

// notify dispatches a failure alert, alerter errors are only logged
func notify(config alerts.AlertsConfig, runID, input string, cause error) {
	am, err := alerts.NewAlertsManager(config)
	if err != nil {
		log.Error("Alerts unavailable", "err", err)
		return
	}
	if err := am.DispatchAlert(runID, input, cause); err != nil {
		log.Error("Alert not sent", "err", err)
	}
}

// printStorage prints keys as they are put, one per line
type printStorage struct {
	out   io.Writer
	lines []string
}

func (s *printStorage) Put(key string, value string) error {
	s.lines = append(s.lines, key+" = "+value)
	return nil
}

func (s *printStorage) PutMeta(key string, meta string, value string) error {
	s.lines = append(s.lines, key+" @"+meta+" = "+value)
	return nil
}

func (s *printStorage) Commit() error {
	for _, line := range s.lines {
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			return err
		}
	}
	s.lines = nil
	return nil
}

func (s *printStorage) Discard() error {
	s.lines = nil
	return nil
}
