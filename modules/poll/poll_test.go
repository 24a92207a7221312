package poll_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"poll-voter/lib/test_utils"
	"poll-voter/modules/common"
	"poll-voter/modules/poll"
	"poll-voter/modules/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *wallet.Session {
	session, err := wallet.Connect(context.Background(), test_utils.NewMockWallet())
	require.NoError(t, err)
	return session
}

func TestFetchMetadataPreservesOrder(t *testing.T) {
	contract := test_utils.NewMockContract("Best color?", "Red", "Green", "Blue")
	reader := poll.NewReader(contract, nil)

	meta, err := reader.FetchMetadata(context.Background(), connect(t))
	require.NoError(t, err)
	assert.Equal(t, "Best color?", meta.Question)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, meta.Options)
	assert.Equal(t, 3, meta.OptionCount())

	// the metadata owns its slice
	contract.OptionList[0] = "Purple"
	assert.Equal(t, "Red", meta.Options[0])
}

func TestFetchMetadataRequiresSession(t *testing.T) {
	contract := test_utils.NewMockContract("q", "a")
	reader := poll.NewReader(contract, nil)

	_, err := reader.FetchMetadata(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)

	session := connect(t)
	session.Disconnect()
	_, err = reader.FetchMetadata(context.Background(), session)
	assert.ErrorIs(t, err, common.ErrWalletUnavailable)
	assert.Zero(t, contract.Reads)
}

func TestFetchMetadataFailures(t *testing.T) {
	contract := test_utils.NewMockContract("q", "a", "b")
	reader := poll.NewReader(contract, nil)
	session := connect(t)

	contract.SetReadErr(fmt.Errorf("%w: %w", common.ErrContractUnreachable, errors.New("connection refused")))
	meta, err := reader.FetchMetadata(context.Background(), session)
	assert.ErrorIs(t, err, common.ErrContractUnreachable)
	assert.Empty(t, meta.Question)
	assert.Empty(t, meta.Options)

	contract.SetReadErr(fmt.Errorf("%w: bad offset", common.ErrMalformedResponse))
	_, err = reader.FetchMetadata(context.Background(), session)
	assert.ErrorIs(t, err, common.ErrMalformedResponse)

	// retry succeeds once the node recovers
	contract.SetReadErr(nil)
	meta, err = reader.FetchMetadata(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, meta.Options)
}
