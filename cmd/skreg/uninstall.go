package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillreg/registry/internal/installer"
	"github.com/skillreg/registry/internal/refs"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <namespace>/<name>@<version>",
	Short: "remove an installed package's version directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := refs.ParsePackageRef(args[0])
		if err != nil {
			return err
		}
		if ref.Version == nil {
			return fmt.Errorf("uninstall requires a pinned version, e.g. ns/name@1.0.0")
		}

		in := &installer.Installer{InstallRoot: flagInstallRoot}
		if err := in.Uninstall(ref); err != nil {
			if errors.Is(err, installer.ErrLocalIO) {
				return localEnv(err)
			}
			return err
		}

		fmt.Printf("%s: uninstalled\n", ref)
		return nil
	},
}

func init() {
	uninstallCmd.Flags().StringVar(&flagInstallRoot, "install-root", defaultInstallRoot(), "directory installed packages are written under")
}
