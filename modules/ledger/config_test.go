package ledger_test

import (
	"testing"
	"time"

	"poll-voter/modules/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerConfigDefaults(t *testing.T) {
	conf := ledger.NewLedgerConfig(t.TempDir())
	require.NoError(t, conf.Init())

	c := conf.Get()
	assert.Equal(t, ledger.DefaultContractAddress, c.ContractAddress)
	assert.Equal(t, 2*time.Second, c.ReceiptPollInterval)
}

func TestLedgerConfigRejectsBadAddress(t *testing.T) {
	// one hex digit too many
	t.Setenv("POLL_VOTER_LEDGER_CONTRACT_ADDRESS", "0x50db3e12E4CC885CE00aFE08a85f58BB2F08D31D0")
	conf := ledger.NewLedgerConfig(t.TempDir())
	assert.Error(t, conf.Init())
}

func TestLedgerConfigEnvOverrides(t *testing.T) {
	t.Setenv("POLL_VOTER_LEDGER_RPC_URL", "https://rpc.sepolia.org")
	t.Setenv("POLL_VOTER_LEDGER_CHAIN_ID", "11155111")
	t.Setenv("POLL_VOTER_LEDGER_RECEIPT_TIMEOUT", "90s")
	conf := ledger.NewLedgerConfig(t.TempDir())
	require.NoError(t, conf.Init())

	c := conf.Get()
	assert.Equal(t, "https://rpc.sepolia.org", c.RpcUrl)
	assert.Equal(t, uint64(11155111), c.ChainId)
	assert.Equal(t, 90*time.Second, c.ReceiptTimeout)
}
