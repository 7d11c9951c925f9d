package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if isLocalEnvError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skreg",
	Short: "skreg installs and verifies signed skill packages",
	Long:  "skreg resolves a package reference against a skill registry, verifies its digest and signature, and installs it locally.",
}

func init() {
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(uninstallCmd)
}
