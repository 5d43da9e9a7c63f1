package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChainId(t *testing.T) {
	s := newTestService(t, nil, nil)
	assert.Equal(t, int64(137), s.GetChainId("MATIC"))
	assert.Equal(t, int64(11155111), s.GetChainId("sep"))
	assert.Equal(t, int64(1), s.GetChainId("unknown"))
}

func TestGetChainInfoIsCached(t *testing.T) {
	gateway := newFakeGateway(t)
	s := newTestService(t, gateway, nil)
	ctx := context.Background()

	chainInfo, err := s.GetChainInfo(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "XDAI", chainInfo.NativeCurrency.Symbol)
	assert.NotEmpty(t, chainInfo.TransactionService)

	_, err = s.GetChainInfo(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gateway.chainHits.Load())
}

func TestGetChainInfoError(t *testing.T) {
	gateway := newFakeGateway(t)
	gateway.chainErr = true
	s := newTestService(t, gateway, nil)

	_, err := s.GetChainInfo(context.Background(), 100)
	require.Error(t, err)
	assert.Equal(t, defaultNativeCurrency, s.NativeCurrency(context.Background(), 100))
}

func TestGetDelayModifiersKeepsOnlyDelayModules(t *testing.T) {
	gateway := newFakeGateway(t, testModule, testModifier)
	s := newTestService(t, gateway, newFakeChain(testModifier))
	ctx := context.Background()

	safeInfo, err := s.GetSafeInfo(ctx, 100, testSafe)
	require.NoError(t, err)
	require.NotNil(t, safeInfo.Version)
	assert.Equal(t, "1.3.0", *safeInfo.Version)
	require.Len(t, safeInfo.Modules, 2)

	delayModifiers, err := s.GetDelayModifiers(ctx, safeInfo)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{testModifier}, delayModifiers)
}

func TestGetDelayModifiersFailsWhenProviderIsDown(t *testing.T) {
	gateway := newFakeGateway(t, testModule, testModifier)
	chain := newFakeChain(testModifier)
	s := newTestService(t, gateway, chain)
	ctx := context.Background()

	safeInfo, err := s.GetSafeInfo(ctx, 100, testSafe)
	require.NoError(t, err)

	chain.setDown(errors.New("dial tcp: connection refused"))
	_, err = s.IsDelayModifier(ctx, testModifier)
	assert.ErrorContains(t, err, "connection refused")

	delayModifiers, err := s.GetDelayModifiers(ctx, safeInfo)
	assert.Error(t, err)
	assert.Nil(t, delayModifiers)
}

func TestIsDelayModifierTimesOut(t *testing.T) {
	chain := newFakeChain(testModifier)
	chain.hang = true
	s := newTestService(t, nil, chain)
	s.CallTimeout = 20 * time.Millisecond

	start := time.Now()
	_, err := s.IsDelayModifier(context.Background(), testModifier)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsDelayModifierTreatsRevertAsOtherModule(t *testing.T) {
	s := newTestService(t, nil, newFakeChain(testModifier))

	isDelayModifier, err := s.IsDelayModifier(context.Background(), testModule)
	require.NoError(t, err)
	assert.False(t, isDelayModifier)

	isDelayModifier, err = s.IsDelayModifier(context.Background(), testModifier)
	require.NoError(t, err)
	assert.True(t, isDelayModifier)
}
