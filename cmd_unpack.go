package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mogaika/phyre_browser/phyre/asset"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <file.phyre>",
	Short: "Export geometry and skeleton as SMD and mesh.ascii",
	Long: `Decode a container and write <name>.smd and <name>.mesh.ascii.

Broken segments are skipped and listed in the summary; only an unreadable
index aborts the export.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnpack,
}

func init() {
	unpackCmd.Flags().StringP("output", "o", "", "output directory (default: next to the input)")
	unpackCmd.Flags().Bool("gltf", false, "also write <name>.glb")
	unpackCmd.Flags().Bool("obj", false, "also write <name>.obj")
	unpackCmd.Flags().Int("workers", 0, "segments decoded in parallel (default from config)")
	unpackCmd.Flags().String("trace", "", "write a decoder trace to this file")
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to write %q", path)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logrus.Infof("wrote %s", path)
	return nil
}

func outputBase(input, dir string) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

func runUnpack(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output")
	withGLTF, _ := cmd.Flags().GetBool("gltf")
	withObj, _ := cmd.Flags().GetBool("obj")
	workers, _ := cmd.Flags().GetInt("workers")
	tracePath, _ := cmd.Flags().GetString("trace")
	if workers <= 0 {
		workers = cfg.Workers
	}
	if tracePath == "" {
		tracePath = cfg.Trace
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "Failed to read input")
	}
	trace, closeTrace, err := openTrace(tracePath)
	if err != nil {
		return err
	}
	defer closeTrace()

	a, err := asset.Load(raw, asset.Options{Workers: workers, Log: trace})
	if err != nil {
		return err
	}
	defer fmt.Print(a.Report.Summary())

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return errors.Wrap(err, "Failed to create output directory")
		}
	}
	base := outputBase(args[0], outDir)

	if err := writeFile(base+".smd", a.WriteSMD); err != nil {
		return err
	}
	if err := writeFile(base+".mesh.ascii", a.WriteMeshASCII); err != nil {
		return err
	}
	if withGLTF {
		if err := writeFile(base+".glb", a.WriteGLB); err != nil {
			return err
		}
	}
	if withObj {
		if err := writeFile(base+".obj", a.WriteObj); err != nil {
			return err
		}
	}
	logrus.Infof("%d submeshes, %d bones", len(a.Submeshes), len(a.Skeleton.Bones))
	return nil
}
