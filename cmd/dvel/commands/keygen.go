package commands

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/mosaicnetworks/dvel/src/crypto"
)

var (
	privKeyFile string
	pubKeyFile  string
)

// NewKeygenCmd returns the command that generates a fresh Ed25519 seed and
// writes it, hex-encoded, to the node's keyfile (spec.md §6).
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keygen",
		Short:   "Generate a new Ed25519 seed",
		PreRunE: loadConfig,
		RunE:    keygen,
	}
	AddKeygenFlags(cmd)
	return cmd
}

// AddKeygenFlags adds flags to the keygen command.
func AddKeygenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&privKeyFile, "priv", "", "File where the seed is written (default: <datadir>/priv_key)")
	cmd.Flags().StringVar(&pubKeyFile, "pub", "", "File where the public key is written (default: <priv>.pub)")
}

func keygen(cmd *cobra.Command, args []string) error {
	priv := privKeyFile
	if priv == "" {
		priv = _config.Dvel.Keyfile()
	}
	pub := pubKeyFile
	if pub == "" {
		pub = priv + ".pub"
	}

	if _, err := os.Stat(priv); err == nil {
		return fmt.Errorf("a key already lives at: %s", priv)
	}

	seed, err := crypto.GenerateSeed()
	if err != nil {
		return fmt.Errorf("generating seed: %w", err)
	}

	if err := os.MkdirAll(path.Dir(priv), 0700); err != nil {
		return fmt.Errorf("writing seed: %w", err)
	}
	if err := ioutil.WriteFile(priv, []byte(hex.EncodeToString(seed[:])), 0600); err != nil {
		return fmt.Errorf("writing seed: %w", err)
	}
	fmt.Printf("Your seed has been saved to: %s\n", priv)

	pubKey := crypto.DerivePublicKey(seed)
	if err := os.MkdirAll(path.Dir(pub), 0700); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	if err := ioutil.WriteFile(pub, []byte(hex.EncodeToString(pubKey[:])), 0600); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	fmt.Printf("Your public key has been saved to: %s\n", pub)
	fmt.Println("PublicKey:", hex.EncodeToString(pubKey[:]))

	return nil
}
