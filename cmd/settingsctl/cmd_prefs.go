package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flow-settings/pkg/prefs"
)

var outputFormat string

// getCmd prints the stored record or a single key
var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print stored settings",
	Long: `Print the stored settings. Keys that were never saved show their
default value.

Examples:
  settingsctl get
  settingsctl get volume_lvl
  settingsctl get -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

// setCmd saves a single key
var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save one setting",
	Long: `Save one setting. Volume takes an integer from 0 to 100, the
switches take true/false, on/off or yes/no.

Examples:
  settingsctl set volume_lvl 70
  settingsctl set key_darkmode on`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

// keysCmd lists the setting keys
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys with their labels and defaults",
	Args:  cobra.NoArgs,
	RunE:  runKeys,
}

func init() {
	getCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json or yaml")
}

func runGet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) == 1 {
		value, err := rec.Get(args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, map[string]any{args[0]: value}, []string{args[0]})
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, recordDoc(rec), prefs.Keys())
}

// writeOutput prints doc in format; order applies to text output
func writeOutput(w io.Writer, format string, doc map[string]any, order []string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		for _, key := range order {
			if _, err := fmt.Fprintf(w, "%s=%v\n", key, doc[key]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown output format %q (supported: text, json, yaml)", format)
}

func runSet(cmd *cobra.Command, args []string) error {
	key, text := args[0], args[1]
	value, err := prefs.ParseValue(key, text)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(cmd.Context(), key, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s saved\n", prefs.Label(key))
	return nil
}

func runKeys(cmd *cobra.Command, args []string) error {
	defaults := prefs.Defaults()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tDEFAULT")
	for _, key := range prefs.Keys() {
		def, _ := defaults.Get(key)
		fmt.Fprintf(tw, "%s\t%s\t%v\n", key, prefs.Label(key), def)
	}
	return tw.Flush()
}
