package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillreg/registry/internal/installer"
	"github.com/skillreg/registry/internal/refs"
	"github.com/skillreg/registry/internal/signing"
)

var (
	flagRegistryURL          string
	flagInstallRoot          string
	flagRootCA               string
	flagRegistryIntermediate string
)

func registerCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagRegistryURL, "registry", "https://registry.skillreg.dev", "base URL of the skill registry")
	cmd.Flags().StringVar(&flagInstallRoot, "install-root", defaultInstallRoot(), "directory installed packages are written under")
	cmd.Flags().StringVar(&flagRootCA, "root-ca", "", "path to the PEM-encoded root CA trust anchor")
	cmd.Flags().StringVar(&flagRegistryIntermediate, "registry-intermediate", "", "path to the PEM-encoded registry signing certificate")
}

func defaultInstallRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skreg/skills"
	}
	return home + "/.skreg/skills"
}

var installCmd = &cobra.Command{
	Use:   "install <namespace>/<name>[@version]",
	Short: "resolve, verify, and install a skill package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := refs.ParsePackageRef(args[0])
		if err != nil {
			return err
		}

		in, err := buildInstaller()
		if err != nil {
			return err
		}

		pkg, err := in.Install(context.Background(), ref)
		if err != nil {
			if errors.Is(err, installer.ErrLocalIO) {
				return localEnv(fmt.Errorf("install failed: %w", err))
			}
			return fmt.Errorf("install failed: %w", err)
		}

		fmt.Printf("installed %s at %s (signer: %s)\n", pkg.Ref, pkg.Path, signerLabel(pkg.Signer))
		return nil
	},
}

func init() {
	registerCommonFlags(installCmd)
}

func buildInstaller() (*installer.Installer, error) {
	if flagRootCA == "" || flagRegistryIntermediate == "" {
		return nil, localEnv(fmt.Errorf("--root-ca and --registry-intermediate are required"))
	}

	rootCAPEM, err := os.ReadFile(flagRootCA)
	if err != nil {
		return nil, localEnv(fmt.Errorf("reading root CA: %w", err))
	}
	intermediatePEM, err := os.ReadFile(flagRegistryIntermediate)
	if err != nil {
		return nil, localEnv(fmt.Errorf("reading registry intermediate: %w", err))
	}

	verifier, err := signing.NewVerifier(rootCAPEM, intermediatePEM, signing.NewInMemoryRevocationStore())
	if err != nil {
		return nil, localEnv(fmt.Errorf("constructing verifier: %w", err))
	}

	return &installer.Installer{
		Registry:    installer.NewRegistryClient(flagRegistryURL),
		Verifier:    verifier,
		InstallRoot: flagInstallRoot,
	}, nil
}

func signerLabel(s installer.SignerKind) string {
	if s.Publisher != nil {
		return fmt.Sprintf("publisher cert #%d", s.Publisher.CertSerial)
	}
	return "registry"
}
