package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mogaika/phyre_browser/config"
	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/utils"
)

var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "phyretool",
	Short: "Unpack and repack Phyre mesh containers",
	Long: `phyretool reads Phyre containers, exports their geometry and skeleton
as SMD and mesh.ascii text (plus optional glTF and OBJ), and packs the
text pair back into a container.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile, "yaml config file")
	rootCmd.PersistentFlags().String("encoding", "", "charmap of the string table, see analyze --encodings")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	rootCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(verifyCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	var err error
	cfg, err = config.Load(path, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if encoding, _ := cmd.Flags().GetString("encoding"); encoding != "" {
		cfg.Encoding = encoding
	}
	if err := cfg.Apply(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "config log_level")
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.Debugf("config %+v", cfg)
	return nil
}

// openTrace returns a decoder trace logger writing to path, or nil
func openTrace(path string) (*utils.Logger, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Failed to create trace file")
	}
	return utils.NewLogger(f), func() { f.Close() }, nil
}

func diagnose(err error) {
	var fe *phyre.FormatError
	if errors.As(err, &fe) {
		logrus.WithFields(logrus.Fields{
			"kind":    fe.Kind.String(),
			"class":   fe.Class,
			"segment": fe.Segment,
			"offset":  fe.Offset,
		}).Error(err)
		return
	}
	logrus.Error(err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		diagnose(err)
		os.Exit(1)
	}
}
