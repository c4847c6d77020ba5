package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mogaika/phyre_browser/phyre/asset"
)

var packCmd = &cobra.Command{
	Use:   "pack <skeleton.smd> <model.mesh.ascii> <out.phyre>",
	Short: "Build a container from SMD and mesh.ascii",
	Long: `Pack reads the skeleton and skinning from the SMD, the geometry from the
mesh.ascii, and writes a container that unpack reads back to the same data.`,
	Args: cobra.ExactArgs(3),
	RunE: runPack,
}

func init() {
	packCmd.Flags().String("trace", "", "write an encoder trace to this file")
}

func runPack(cmd *cobra.Command, args []string) error {
	tracePath, _ := cmd.Flags().GetString("trace")
	if tracePath == "" {
		tracePath = cfg.Trace
	}

	smd, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "Failed to read smd")
	}
	ascii, err := os.ReadFile(args[1])
	if err != nil {
		return errors.Wrap(err, "Failed to read mesh.ascii")
	}
	trace, closeTrace, err := openTrace(tracePath)
	if err != nil {
		return err
	}
	defer closeTrace()

	raw, err := asset.Pack(smd, ascii, trace)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[2], raw, 0644); err != nil {
		return errors.Wrap(err, "Failed to write container")
	}
	logrus.Infof("wrote %s, 0x%x bytes", args[2], len(raw))
	return nil
}
