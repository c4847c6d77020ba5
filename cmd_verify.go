package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mogaika/phyre_browser/phyre/asset"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <packed.phyre> [original.phyre]",
	Short: "Re-read a container, optionally comparing it with another one",
	Long: `Verify decodes the container and fails when anything was skipped.
With a second container the logical content of both is compared: vertex
positions, triangle sets and bone poses.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Float32("tolerance", 1e-3, "allowed difference of positions and euler degrees")
}

func loadFile(path string) (*asset.Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read %q", path)
	}
	a, err := asset.Load(raw, asset.Options{Workers: cfg.Workers})
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %q", path)
	}
	return a, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	tolerance, _ := cmd.Flags().GetFloat32("tolerance")

	packed, err := loadFile(args[0])
	if err != nil {
		return err
	}
	fmt.Print(packed.Report.Summary())
	if !packed.Report.Clean() {
		return errors.Errorf("%s decoded with problems", args[0])
	}
	if len(args) == 1 {
		logrus.Infof("%s: %d submeshes, %d bones", args[0], len(packed.Submeshes), len(packed.Skeleton.Bones))
		return nil
	}

	original, err := loadFile(args[1])
	if err != nil {
		return err
	}
	diffs := asset.Compare(original, packed, tolerance)
	for _, diff := range diffs {
		logrus.Warn(diff)
	}
	if len(diffs) != 0 {
		return errors.Errorf("%d differences", len(diffs))
	}
	logrus.Infof("%s matches %s", args[0], args[1])
	return nil
}
