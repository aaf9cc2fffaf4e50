package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records the calls WithTxOptions makes. Methods it does not use
// panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
	rbErr      error
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return f.rbErr
}

type fakeBeginner struct {
	tx   *fakeTx
	opts pgx.TxOptions
	err  error
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.opts = opts
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	require.NoError(t, WithTx(context.Background(), b, func(pgx.Tx) error { return nil }))
	assert.True(t, b.tx.committed)
	assert.False(t, b.tx.rolledBack)
	assert.Equal(t, pgx.RepeatableRead, b.opts.IsoLevel)
	assert.Equal(t, pgx.TxAccessMode(""), b.opts.AccessMode)
}

func TestWithTxRollsBackAndKeepsError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	sentinel := errors.New("stock check failed")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return sentinel })
	assert.Same(t, sentinel, err)
	assert.True(t, b.tx.rolledBack)
	assert.False(t, b.tx.committed)
}

func TestWithTxJoinsRollbackFailure(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{rbErr: errors.New("conn lost")}}
	sentinel := errors.New("boom")
	err := WithTx(context.Background(), b, func(pgx.Tx) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "rollback: conn lost")

	b = &fakeBeginner{tx: &fakeTx{rbErr: pgx.ErrTxClosed}}
	assert.Same(t, sentinel, WithTx(context.Background(), b, func(pgx.Tx) error { return sentinel }))
}

func TestWithTxBeginAndCommitErrors(t *testing.T) {
	begin := errors.New("too many connections")
	err := WithTx(context.Background(), &fakeBeginner{err: begin}, func(pgx.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.ErrorIs(t, err, begin)

	commit := errors.New("serialization failure")
	err = WithTx(context.Background(), &fakeBeginner{tx: &fakeTx{commitErr: commit}}, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, commit)
}

func TestReadSnapshotIsReadOnly(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	require.NoError(t, ReadSnapshot(context.Background(), b, func(pgx.Tx) error { return nil }))
	assert.Equal(t, pgx.ReadOnly, b.opts.AccessMode)
	assert.Equal(t, pgx.RepeatableRead, b.opts.IsoLevel)
}
