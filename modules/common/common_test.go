package common_test

import (
	"errors"
	"fmt"
	"testing"

	"poll-voter/modules/common"

	"github.com/stretchr/testify/assert"
)

func TestReasonOf(t *testing.T) {
	assert.True(t, common.ReasonOf(nil).IsNone())
	assert.True(t, common.ReasonOf(errors.New("boom")).IsNone())

	wrapped := fmt.Errorf("fetching options: %w", common.ErrMalformedResponse)
	assert.Equal(t, common.ReasonMalformedResponse, common.ReasonOf(wrapped).Unwrap())

	// rejection wins over the transport sentinel it is joined with
	joined := fmt.Errorf("%w: %w", common.ErrWalletUnavailable, common.ErrUserRejected)
	assert.Equal(t, common.ReasonUserRejected, common.ReasonOf(joined).Unwrap())
}
