package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"

	"gallery-core/pkg/signer"
)

var (
	keystorePath     string
	keystorePassword string
	importMnemonic   string
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage the encrypted signer keystore",
}

var keystoreInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new signer keystore",
	Long: `Generates a fresh 24-word mnemonic (or imports one via --mnemonic),
encrypts it with the given password and writes the keystore file. The derived
signer address is printed so it can be funded for gas.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keystorePassword == "" {
			return fmt.Errorf("--password is required")
		}
		if _, err := os.Stat(keystorePath); err == nil {
			return fmt.Errorf("keystore %s already exists, refusing to overwrite", keystorePath)
		}

		mnemonic := importMnemonic
		if mnemonic == "" {
			entropy, err := bip39.NewEntropy(256)
			if err != nil {
				return fmt.Errorf("generate entropy: %w", err)
			}
			mnemonic, err = bip39.NewMnemonic(entropy)
			if err != nil {
				return fmt.Errorf("generate mnemonic: %w", err)
			}
		} else if !bip39.IsMnemonicValid(mnemonic) {
			return fmt.Errorf("imported mnemonic failed checksum validation")
		}

		key, err := signer.FromMnemonic(mnemonic)
		if err != nil {
			return fmt.Errorf("derive signing key: %w", err)
		}

		encrypted, err := signer.EncryptMnemonic(mnemonic, keystorePassword)
		if err != nil {
			return fmt.Errorf("encrypt mnemonic: %w", err)
		}
		if err := encrypted.SaveToFile(keystorePath); err != nil {
			return fmt.Errorf("write keystore: %w", err)
		}

		fmt.Printf("Keystore written to %s\n", keystorePath)
		fmt.Printf("Signer address: %s\n", key.Address.Hex())
		if importMnemonic == "" {
			fmt.Println("---------------------------------------------------")
			fmt.Printf("Mnemonic (write it down, it is not stored in plaintext):\n%s\n", mnemonic)
		}
		return nil
	},
}

var keystoreShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the signer address of an existing keystore",
	RunE: func(cmd *cobra.Command, args []string) error {
		if keystorePassword == "" {
			return fmt.Errorf("--password is required")
		}

		encrypted, err := signer.LoadFromFile(keystorePath)
		if err != nil {
			return fmt.Errorf("read keystore: %w", err)
		}
		mnemonic, err := signer.DecryptMnemonic(encrypted, keystorePassword)
		if err != nil {
			return fmt.Errorf("decrypt keystore: %w", err)
		}
		key, err := signer.FromMnemonic(mnemonic)
		if err != nil {
			return fmt.Errorf("derive signing key: %w", err)
		}

		fmt.Printf("Signer address: %s\n", key.Address.Hex())
		return nil
	},
}

func init() {
	keystoreCmd.PersistentFlags().StringVar(&keystorePath, "path", "signer.json", "keystore file path")
	keystoreCmd.PersistentFlags().StringVar(&keystorePassword, "password", os.Getenv("SIGNER_PASSWORD"), "keystore password")
	keystoreInitCmd.Flags().StringVar(&importMnemonic, "mnemonic", "", "import an existing mnemonic instead of generating one")

	keystoreCmd.AddCommand(keystoreInitCmd)
	keystoreCmd.AddCommand(keystoreShowCmd)
	rootCmd.AddCommand(keystoreCmd)
}
