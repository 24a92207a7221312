package wallet_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"poll-voter/modules/common"
	"poll-voter/modules/wallet"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	ethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== mocks =====

type stubProvider struct {
	accounts []ethCommon.Address
	err      error
}

func (s *stubProvider) RequestAccounts(context.Context) ([]ethCommon.Address, error) {
	return s.accounts, s.err
}

func (s *stubProvider) Signer(account ethCommon.Address) (wallet.Signer, error) {
	return nil, errors.New("no signer")
}

// ===== tests =====

func TestConnectWithKeyProvider(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	provider := wallet.NewKeyProvider(key, wallet.AlwaysApprove)

	session, err := wallet.Connect(context.Background(), provider)
	require.NoError(t, err)

	assert.True(t, session.Connected())
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), session.Account)
	assert.Equal(t, session.Account, session.Signer.Account())

	session.Disconnect()
	assert.False(t, session.Connected())
}

func TestConnectFailures(t *testing.T) {
	ctx := context.Background()

	_, err := wallet.Connect(ctx, nil)
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	declining := wallet.NewKeyProvider(key, func(ethCommon.Address) bool { return false })
	_, err = wallet.Connect(ctx, declining)
	assert.ErrorIs(t, err, common.ErrUserRejected)
	assert.NotErrorIs(t, err, common.ErrWalletUnavailable)

	_, err = wallet.Connect(ctx, &stubProvider{})
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)

	_, err = wallet.Connect(ctx, &stubProvider{err: errors.New("extension crashed")})
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)

	_, err = wallet.Connect(ctx, &stubProvider{accounts: []ethCommon.Address{{1}}})
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)
}

func TestConnectRetryAfterRejection(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	answers := []bool{false, true}
	provider := wallet.NewKeyProvider(key, func(ethCommon.Address) bool {
		a := answers[0]
		answers = answers[1:]
		return a
	})

	_, err = wallet.Connect(context.Background(), provider)
	assert.ErrorIs(t, err, common.ErrUserRejected)

	session, err := wallet.Connect(context.Background(), provider)
	assert.NoError(t, err)
	assert.True(t, session.Connected())
}

func TestKeySignerSignsForChain(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	provider := wallet.NewKeyProvider(key, nil)

	signer, err := provider.Signer(provider.Address())
	require.NoError(t, err)

	_, err = provider.Signer(ethCommon.Address{1})
	assert.ErrorIs(t, err, wallet.ErrUnknownAccount)

	chainID := big.NewInt(11155111)
	to := ethCommon.HexToAddress("0x50db3e12E4CC885CE00aFE08a85f58BB2F08D31D")
	tx := types.NewTx(&types.DynamicFeeTx{
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(10),
	})

	signed, err := signer.SignTx(context.Background(), tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, provider.Address(), sender)
	assert.Equal(t, chainID, signed.ChainId())
}

func TestKeyProviderFromHexAndKeystore(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	fromHex, err := wallet.KeyProviderFromHex("0x"+ethCommon.Bytes2Hex(crypto.FromECDSA(key)), nil)
	require.NoError(t, err)
	assert.Equal(t, addr, fromHex.Address())

	_, err = wallet.KeyProviderFromHex("not-a-key", nil)
	assert.Error(t, err)

	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	acc, err := ks.ImportECDSA(key, "secret")
	require.NoError(t, err)

	fromFile, err := wallet.KeyProviderFromKeystore(acc.URL.Path, "secret", nil)
	require.NoError(t, err)
	assert.Equal(t, addr, fromFile.Address())

	_, err = wallet.KeyProviderFromKeystore(acc.URL.Path, "wrong", nil)
	assert.Error(t, err)
}

func TestNewProviderFromConfig(t *testing.T) {
	dir := t.TempDir()
	conf := wallet.NewWalletConfig(dir)
	require.NoError(t, conf.Init())

	_, err := wallet.NewProvider(context.Background(), conf, nil)
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	t.Setenv("POLL_VOTER_WALLET_PRIVATE_KEY", ethCommon.Bytes2Hex(crypto.FromECDSA(key)))

	conf = wallet.NewWalletConfig(dir)
	require.NoError(t, conf.Init())
	provider, err := wallet.NewProvider(context.Background(), conf, wallet.AlwaysApprove)
	require.NoError(t, err)

	accounts, err := provider.RequestAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ethCommon.Address{crypto.PubkeyToAddress(key.PublicKey)}, accounts)
}
