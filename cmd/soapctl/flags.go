package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// A flag given on the command line wins; otherwise the viper value
// (SOAPCTL_* environment or config file) is used, then the flag default.

func flagOrViperString(v *viper.Viper, cmd *cobra.Command, name string) string {
	s, _ := cmd.Flags().GetString(name)
	if cmd.Flags().Changed(name) {
		return s
	}
	if v.IsSet(name) {
		return v.GetString(name)
	}
	return s
}

func flagOrViperStringArray(v *viper.Viper, cmd *cobra.Command, name string) []string {
	s, _ := cmd.Flags().GetStringArray(name)
	if cmd.Flags().Changed(name) {
		return s
	}
	if v.IsSet(name) {
		return v.GetStringSlice(name)
	}
	return s
}

func flagOrViperBool(v *viper.Viper, cmd *cobra.Command, name string) bool {
	b, _ := cmd.Flags().GetBool(name)
	if cmd.Flags().Changed(name) {
		return b
	}
	if v.IsSet(name) {
		return v.GetBool(name)
	}
	return b
}
