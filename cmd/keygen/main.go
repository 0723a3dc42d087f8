// Command keygen creates an encrypted keystore account for the keystore
// wallet mode.
//
//	go run ./cmd/keygen -dir keys
//
// The passphrase is taken from -passphrase or REDAPP_PASSPHRASE. Point
// keystore_file (or REDAPP_KEYSTORE) at the printed path to use it.
package main

import (
	"flag"
	"fmt"
	"os"

	"realestate.dapp/redapp/internal/config"
	"realestate.dapp/redapp/internal/wallet"
)

func main() {
	dir := flag.String("dir", "keys", "directory to write the key file into")
	passphrase := flag.String("passphrase", "", "passphrase to encrypt the key with (default $REDAPP_PASSPHRASE)")
	light := flag.Bool("light", false, "use light scrypt parameters (development only)")
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	if *passphrase == "" {
		*passphrase = os.Getenv("REDAPP_PASSPHRASE")
	}
	if *passphrase == "" {
		fmt.Fprintln(os.Stderr, "A passphrase is required (-passphrase or REDAPP_PASSPHRASE)")
		os.Exit(1)
	}

	if err := os.MkdirAll(*dir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *dir, err)
		os.Exit(1)
	}

	address, path, err := wallet.CreateKeystore(*dir, *passphrase, *light)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account: %s\n", address)
	fmt.Printf("Key file: %s\n", path)
}
