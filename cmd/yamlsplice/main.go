// Command yamlsplice edits YAML files in place while preserving comments
// and formatting.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	gyaml "github.com/goccy/go-yaml"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/kevinwang15/yamlsplice"
)

var (
	writeInPlace bool
	showDiff     bool
	patchAt      string
)

func main() {
	root := &cobra.Command{
		Use:           "yamlsplice",
		Short:         "Edit YAML files while preserving comments and formatting",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&writeInPlace, "write", "w", false, "write the result back to the file")
	root.PersistentFlags().BoolVar(&showDiff, "diff", false, "print a unified diff instead of the full document")

	root.AddCommand(getCmd(), setCmd(), appendCmd(), insertCmd(), rmCmd(), patchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "yamlsplice:", err)
		os.Exit(1)
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE POINTER",
		Short: "Print the raw source text of the node at a JSON Pointer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return err
			}
			ed, err := yamlsplice.New(src)
			if err != nil {
				return err
			}
			path, err := yamlsplice.ParsePointer(args[1])
			if err != nil {
				return err
			}
			node, err := ed.ParseAt(path)
			if err != nil {
				return err
			}
			fmt.Println(src[node.Span.Start:node.Span.End])
			return nil
		},
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set FILE POINTER VALUE",
		Short: "Set the value at a JSON Pointer (VALUE is parsed as YAML)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(args[0], func(ed *yamlsplice.Editor) error {
				path, err := yamlsplice.ParsePointer(args[1])
				if err != nil {
					return err
				}
				value, err := parseValue(args[2])
				if err != nil {
					return err
				}
				return ed.Update(path, value)
			})
		},
	}
}

func appendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append FILE POINTER VALUE",
		Short: "Append a value to the sequence at a JSON Pointer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(args[0], func(ed *yamlsplice.Editor) error {
				path, err := yamlsplice.ParsePointer(args[1])
				if err != nil {
					return err
				}
				value, err := parseValue(args[2])
				if err != nil {
					return err
				}
				return ed.AppendTo(path, value)
			})
		},
	}
}

func insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert FILE POINTER INDEX VALUE",
		Short: "Insert a value before INDEX in the sequence at a JSON Pointer",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(args[0], func(ed *yamlsplice.Editor) error {
				path, err := yamlsplice.ParsePointer(args[1])
				if err != nil {
					return err
				}
				index, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("index %q is not a number", args[2])
				}
				value, err := parseValue(args[3])
				if err != nil {
					return err
				}
				return ed.Insert(path, index, value)
			})
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm FILE POINTER",
		Short: "Remove the node at a JSON Pointer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return edit(args[0], func(ed *yamlsplice.Editor) error {
				path, err := yamlsplice.ParsePointer(args[1])
				if err != nil {
					return err
				}
				return ed.Remove(path)
			})
		},
	}
}

func patchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "patch FILE PATCHFILE",
		Short: "Apply an RFC 6902 JSON Patch file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return edit(args[0], func(ed *yamlsplice.Editor) error {
				base, err := yamlsplice.ParsePointer(patchAt)
				if err != nil {
					return err
				}
				return ed.ApplyJSONPatchAt(base, patch)
			})
		},
	}
	c.Flags().StringVar(&patchAt, "at", "", "JSON Pointer the patch paths are relative to")
	return c
}

// edit runs one mutation against the file and emits the result per the
// output flags.
func edit(file string, fn func(*yamlsplice.Editor) error) error {
	src, err := readSource(file)
	if err != nil {
		return err
	}
	ed, err := yamlsplice.New(src)
	if err != nil {
		return err
	}
	if err := fn(ed); err != nil {
		return err
	}
	out := ed.String()

	if showDiff {
		printDiff(src, out, file)
	}
	if writeInPlace && file != "-" {
		return os.WriteFile(file, []byte(out), 0o644)
	}
	if !showDiff {
		fmt.Print(out)
	}
	return nil
}

func readSource(file string) (string, error) {
	if file == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(file)
	return string(b), err
}

// parseValue interprets a CLI argument as a YAML value, keeping mapping
// order via goccy's ordered maps.
func parseValue(arg string) (any, error) {
	var v any
	if err := gyaml.UnmarshalWithOptions([]byte(arg), &v, gyaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("value %q is not valid YAML: %w", arg, err)
	}
	return v, nil
}

func printDiff(before, after, file string) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: file,
		ToFile:   file + " (edited)",
		Context:  2,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "diff:", err)
		return
	}
	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	for _, line := range difflib.SplitLines(diff) {
		switch {
		case len(line) > 0 && line[0] == '+':
			add.Print(line)
		case len(line) > 0 && line[0] == '-':
			del.Print(line)
		default:
			fmt.Print(line)
		}
	}
}
