package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/drfirst/go-soap/internal/domain/session"
	"github.com/drfirst/go-soap/internal/soapnote"
)

func newMergeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge tagged update blocks into a problem text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			basePath := flagOrViperString(v, cmd, "base")
			if basePath == "" {
				return fmt.Errorf("--base is required")
			}
			base, err := readFile(basePath)
			if err != nil {
				return err
			}
			updates, err := readFile(flagOrViperString(v, cmd, "updates"))
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), soapnote.Merge(base, updates))
			return nil
		},
	}
	cmd.Flags().String("base", "", "Problem text to merge into.")
	cmd.Flags().String("updates", "", "Update text with [Section] headers.")
	return cmd
}

func newAssembleCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Print the renumbered A/P document for a note and its logs",
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

			s, err := session.New("soapctl", note, logs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Document())
			return nil
		},
	}
	cmd.Flags().StringArray("log", nil, "Order log file (repeatable).")
	cmd.Flags().String("note", "", "Prior SOAP note file.")
	return cmd
}
