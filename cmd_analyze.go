package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/phyre_browser/config"
	"github.com/mogaika/phyre_browser/phyre"
	"github.com/mogaika/phyre_browser/utils"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.phyre>",
	Short: "Print the header, class table and instance directory",
	Args: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("encodings"); list {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "text", "output format: text, yaml, spew")
	analyzeCmd.Flags().Bool("tree", false, "append the region tree")
	analyzeCmd.Flags().Bool("encodings", false, "list string table encodings and exit")
}

type classInfo struct {
	Id         int      `yaml:"id"`
	Name       string   `yaml:"name"`
	Properties []string `yaml:"properties,flow"`
}

type instanceInfo struct {
	Index       int    `yaml:"index"`
	ClassId     int32  `yaml:"class_id"`
	Class       string `yaml:"class"`
	Offset      int    `yaml:"offset"`
	RecordCount int32  `yaml:"records"`
	ByteSize    int32  `yaml:"size"`
}

type analysis struct {
	Header     phyre.Header   `yaml:"header"`
	Classes    []classInfo    `yaml:"classes"`
	Instances  []instanceInfo `yaml:"instances"`
	DataStart  int            `yaml:"data_start"`
	DataEnd    int            `yaml:"data_end"`
	SharedBase int            `yaml:"shared_base"`
	Warnings   []string       `yaml:"warnings,omitempty"`
}

func analyzeIndex(idx *phyre.Index) *analysis {
	a := &analysis{
		Header:     idx.Header,
		DataStart:  idx.DataStart,
		DataEnd:    idx.DataEnd,
		SharedBase: idx.SharedBase,
	}
	for _, c := range idx.Classes {
		a.Classes = append(a.Classes, classInfo{Id: c.Id, Name: c.Name, Properties: c.Properties})
	}
	for _, inst := range idx.Instances {
		a.Instances = append(a.Instances, instanceInfo{
			Index:       inst.Index,
			ClassId:     inst.ClassId,
			Class:       inst.Class,
			Offset:      inst.Offset,
			RecordCount: inst.RecordCount,
			ByteSize:    inst.ByteSize,
		})
	}
	for _, w := range idx.Warnings {
		a.Warnings = append(a.Warnings, w.Error())
	}
	return a
}

func (a *analysis) writeText(w io.Writer) {
	h := &a.Header
	fmt.Fprintf(w, "magic 0x%08x, class table at 0x%x, instance table at +0x%x, %d instances\n",
		uint32(h.Magic), h.ClassTableOffset, h.InstanceTableOffset, h.InstanceCount)
	fmt.Fprintf(w, "data 0x%x..0x%x, shared region at 0x%x (vertices at +0x%x)\n",
		a.DataStart, a.DataEnd, a.SharedBase, h.VertexRegionOffset)

	fmt.Fprintf(w, "classes (%d):\n", len(a.Classes))
	for _, c := range a.Classes {
		fmt.Fprintf(w, "  %3d %-16s %s\n", c.Id, c.Name, strings.Join(c.Properties, " "))
	}
	fmt.Fprintf(w, "instances (%d):\n", len(a.Instances))
	for _, inst := range a.Instances {
		class := inst.Class
		if class == "" {
			class = fmt.Sprintf("<invalid class %d>", inst.ClassId)
		}
		fmt.Fprintf(w, "  %3d %-16s at 0x%06x, %d records, 0x%x bytes\n",
			inst.Index, class, inst.Offset, inst.RecordCount, inst.ByteSize)
	}
	for _, warning := range a.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if list, _ := cmd.Flags().GetBool("encodings"); list {
		for _, name := range config.ListEncodings() {
			fmt.Fprintln(out, name)
		}
		return nil
	}
	format, _ := cmd.Flags().GetString("format")
	tree, _ := cmd.Flags().GetBool("tree")

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "Failed to read input")
	}
	idx, err := phyre.Open(raw, nil)
	if err != nil {
		return err
	}
	a := analyzeIndex(idx)

	switch format {
	case "text":
		a.writeText(out)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return errors.Wrap(err, "Failed to encode yaml")
		}
		if err := enc.Close(); err != nil {
			return err
		}
	case "spew":
		utils.FDump(out, a)
	default:
		return errors.Errorf("unknown format %q", format)
	}

	if tree {
		fmt.Fprint(out, idx.Tree())
	}
	return nil
}
