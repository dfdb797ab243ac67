package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drfirst/go-soap/internal/orderlog"
	"github.com/drfirst/go-soap/internal/soapnote"
)

type parseResult struct {
	EntryCount  int                   `json:"entry_count"`
	Medications []orderlog.Medication `json:"medications"`
	Orders      []orderlog.Order      `json:"orders"`
	Problems    []soapnote.Problem    `json:"problems"`
	Plan        string                `json:"plan"`
}

func newParseCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Extract medications and orders from logs and problems from a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logs, err := readFiles(flagOrViperStringArray(v, cmd, "log"))
			if err != nil {
				return err
			}
			note, err := readFile(flagOrViperString(v, cmd, "note"))
			if err != nil {
				return err
			}

			res := parseResult{
				Medications: []orderlog.Medication{},
				Orders:      []orderlog.Order{},
				Problems:    []soapnote.Problem{},
			}
			if lines := orderlog.SplitLines(logs...); len(lines) > 0 {
				res.Medications, res.Orders, res.EntryCount = orderlog.Extract(lines)
			}
			if strings.TrimSpace(note) != "" {
				res.Problems, res.Plan = soapnote.ParseHistory(note)
			}

			out := cmd.OutOrStdout()
			if flagOrViperBool(v, cmd, "json") {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printParse(out, res)
			return nil
		},
	}
	cmd.Flags().StringArray("log", nil, "Order log file (repeatable).")
	cmd.Flags().String("note", "", "Prior SOAP note file.")
	cmd.Flags().Bool("json", false, "Print JSON instead of text.")
	return cmd
}

func printParse(w io.Writer, res parseResult) {
	fmt.Fprintf(w, "entries: %d\n", res.EntryCount)
	fmt.Fprintln(w, "medications:")
	for _, m := range res.Medications {
		fmt.Fprintf(w, "  %s (%s): %s\n", m.Display, m.Status, m.Details)
	}
	fmt.Fprintln(w, "orders:")
	for _, o := range res.Orders {
		fmt.Fprintf(w, "  %s: %s\n", o.Display, o.Details)
	}
	fmt.Fprintln(w, "problems:")
	for _, p := range res.Problems {
		fmt.Fprintf(w, "  %s\n", p.Title)
	}
	if res.Plan != "" {
		fmt.Fprintf(w, "plan:\n%s\n", res.Plan)
	}
}
