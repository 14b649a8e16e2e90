package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/foamcsv/internal/foam"
)

// previewLimit caps how many values inspect prints.
const previewLimit = 5

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <field-file>",
		Short: "Inspect the internalField entry of a single field file",
		Long: `Inspect parses one OpenFOAM field file and reports how its internalField
entry would be exported: uniform or non-uniform, declared entry count,
parsed entry count, and a preview of the first values.

Fields are read as scalars unless --vector is given.

Examples:
  foamcsv inspect ./cavity/0.5/p
  foamcsv inspect --vector ./cavity/0.5/U`,
		Args: cobra.ExactArgs(1),
		RunE: inspectCommand,
	}

	cmd.Flags().Bool("vector", false, "Parse the field as a 3-component vector")

	return cmd
}

// inspectCommand implements the inspect command logic
func inspectCommand(cmd *cobra.Command, args []string) error {
	vector, _ := cmd.Flags().GetBool("vector")
	arity := foam.ArityScalar
	if vector {
		arity = foam.ArityVector
	}

	path := args[0]
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open field file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read field file: %w", err)
	}

	block, err := foam.LocateInternalField(lines)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	values, err := foam.Extract(block, arity)
	if err != nil {
		return fmt.Errorf("failed to extract values from %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Block: %s\n", block.Kind)
	fmt.Fprintf(out, "Arity: %s\n", values.Arity)
	if block.Kind == foam.BlockNonUniform {
		fmt.Fprintf(out, "Declared count: %d\n", values.DeclaredCount)
	}
	fmt.Fprintf(out, "Parsed entries: %d\n", values.Len())
	if values.CountAnomaly() {
		fmt.Fprintf(out, "Count anomaly: declared %d, parsed %d\n", values.DeclaredCount, values.Len())
	}

	fmt.Fprintf(out, "Values:\n")
	switch values.Arity {
	case foam.ArityVector:
		for i, v := range values.Vectors {
			if i >= previewLimit {
				fmt.Fprintf(out, "  ... %d more\n", len(values.Vectors)-previewLimit)
				break
			}
			fmt.Fprintf(out, "  %d: (%g %g %g)\n", i, v.X, v.Y, v.Z)
		}
	default:
		for i, v := range values.Scalars {
			if i >= previewLimit {
				fmt.Fprintf(out, "  ... %d more\n", len(values.Scalars)-previewLimit)
				break
			}
			fmt.Fprintf(out, "  %d: %g\n", i, v)
		}
	}

	return nil
}
