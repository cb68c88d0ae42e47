package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// ErrNoKeySource is returned when neither a keystore file nor a mnemonic is
// configured.
var ErrNoKeySource = errors.New("no signer key source configured")

// Key holds the platform signing key. Every transfer and mint in the system is
// signed by this one key.
type Key struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// Load resolves the signer mnemonic (encrypted keystore file preferred, plain
// mnemonic as fallback) and derives the platform key at m/44'/60'/0'/0/0.
func Load(keystorePath, password, mnemonic string) (*Key, error) {
	if keystorePath != "" {
		if _, err := os.Stat(keystorePath); err == nil {
			keyJSON, err := LoadFromFile(keystorePath)
			if err != nil {
				return nil, fmt.Errorf("load keystore: %w", err)
			}
			mnemonic, err = DecryptMnemonic(keyJSON, password)
			if err != nil {
				return nil, fmt.Errorf("decrypt keystore: %w", err)
			}
		}
	}

	if mnemonic == "" {
		return nil, ErrNoKeySource
	}

	return FromMnemonic(mnemonic)
}

// FromMnemonic derives the Ethereum signing key at the standard BIP-44 path
// m/44'/60'/0'/0/0.
func FromMnemonic(mnemonic string) (*Key, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	// m/44'/60'/0'/0/0
	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}

	key := master
	for _, index := range path {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("derive index %d: %w", index, err)
		}
	}

	btcPriv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}

	priv := btcPriv.ToECDSA()
	return &Key{
		PrivateKey: priv,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
	}, nil
}
