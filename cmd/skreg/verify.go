package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skillreg/registry/internal/installer"
	"github.com/skillreg/registry/internal/refs"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <namespace>/<name>@<version>",
	Short: "re-check an installed package's digest against its install log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := refs.ParsePackageRef(args[0])
		if err != nil {
			return err
		}
		if ref.Version == nil {
			return fmt.Errorf("verify requires a pinned version, e.g. ns/name@1.0.0")
		}

		dir := filepath.Join(flagInstallRoot, string(ref.Namespace), string(ref.Name), ref.Version.String())
		if err := installer.VerifyInstalled(dir); err != nil {
			if errors.Is(err, installer.ErrLocalIO) {
				return localEnv(err)
			}
			return err
		}

		fmt.Printf("%s: verified\n", ref)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&flagInstallRoot, "install-root", defaultInstallRoot(), "directory installed packages are written under")
}
