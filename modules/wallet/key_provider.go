package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"poll-voter/modules/common"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrUnknownAccount = errors.New("account not managed by this wallet")

// Approver stands in for the wallet's permission prompt.
type Approver func(account ethCommon.Address) bool

// AlwaysApprove grants every access request.
func AlwaysApprove(ethCommon.Address) bool { return true }

// KeyProvider is an in-process wallet holding a single ECDSA key.
type KeyProvider struct {
	key      *ecdsa.PrivateKey
	address  ethCommon.Address
	approver Approver
}

var _ Provider = &KeyProvider{}

func NewKeyProvider(key *ecdsa.PrivateKey, approver Approver) *KeyProvider {
	return &KeyProvider{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		approver: approver,
	}
}

// KeyProviderFromHex accepts a raw secp256k1 key with or without 0x prefix.
func KeyProviderFromHex(hexKey string, approver Approver) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return NewKeyProvider(key, approver), nil
}

// KeyProviderFromKeystore decrypts a V3 keystore file.
func KeyProviderFromKeystore(path, passphrase string, approver Approver) (*KeyProvider, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keystore: %w", err)
	}
	return NewKeyProvider(key.PrivateKey, approver), nil
}

func (k *KeyProvider) Address() ethCommon.Address {
	return k.address
}

// RequestAccounts implements Provider.
func (k *KeyProvider) RequestAccounts(ctx context.Context) ([]ethCommon.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k.approver != nil && !k.approver(k.address) {
		return nil, common.ErrUserRejected
	}
	return []ethCommon.Address{k.address}, nil
}

// Signer implements Provider.
func (k *KeyProvider) Signer(account ethCommon.Address) (Signer, error) {
	if account != k.address {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, account.Hex())
	}
	return &keySigner{key: k.key, address: k.address}, nil
}

type keySigner struct {
	key     *ecdsa.PrivateKey
	address ethCommon.Address
}

func (s *keySigner) Account() ethCommon.Address {
	return s.address
}

func (s *keySigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
