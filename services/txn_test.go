package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestSequentialRunnerExecutesWork(t *testing.T) {
	runner := &sequentialRunner{log: testLogger()}
	assert.False(t, runner.Transactional())

	ran := false
	err := runner.Run(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestSequentialRunnerPropagatesError(t *testing.T) {
	runner := &sequentialRunner{log: testLogger()}

	boom := errors.New("boom")
	err := runner.Run(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestIsTxnUnsupported(t *testing.T) {
	assert.True(t, isTxnUnsupported(mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}))
	assert.True(t, isTxnUnsupported(mongo.CommandError{Code: 20, Message: "IllegalOperation"}))
	assert.True(t, isTxnUnsupported(errors.New("(IllegalOperation) Transaction numbers are only allowed on a replica set member or mongos")))

	assert.False(t, isTxnUnsupported(mongo.CommandError{Code: 11000, Message: "duplicate key"}))
	assert.False(t, isTxnUnsupported(errors.New("connection refused")))
}
