package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stagelink/internal/model"
)

const (
	profA = "6f1c2a4e-2b7d-4c1e-9a3f-1d2e3f4a5b6c"
	acctA = "0b6c7d8e-9f10-4a11-8b12-c13d14e15f16"
	profB = "7a8b9c0d-1e2f-4a3b-9c4d-5e6f7a8b9c0d"
	acctB = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
)

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID(profA))
	assert.False(t, IsUUID(""))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID("00000000-0000-0000-0000-000000000000"), "nil uuid has no version")
	assert.False(t, IsUUID("6f1c2a4e-2b7d-7c1e-9a3f-1d2e3f4a5b6c"), "version 7 is rejected")
	assert.False(t, IsUUID("urn:uuid:"+profA))
}

func TestBuildCandidates(t *testing.T) {
	got := BuildCandidates(profA, "", " "+profA+" ", "junk", acctA, acctA)
	assert.Equal(t, []string{profA, acctA}, got)
	assert.Empty(t, BuildCandidates("", "x"))
}

func TestCandidatePairs_Order(t *testing.T) {
	var got []Pair
	for p := range CandidatePairs([]string{profA, acctA}, []string{profB, acctB}) {
		got = append(got, p)
	}
	assert.Equal(t, []Pair{
		{profA, profB}, {profA, acctB},
		{acctA, profB}, {acctA, acctB},
	}, got)
}

func TestCandidatePairs_SkipsIdenticalKeys(t *testing.T) {
	var got []Pair
	for p := range CandidatePairs([]string{profA}, []string{profA, profB}) {
		got = append(got, p)
	}
	assert.Equal(t, []Pair{{profA, profB}}, got)
}

func TestResolveExistingRequest_StopsAtFirstHit(t *testing.T) {
	var calls []Pair
	hit := &model.CollaborationRequest{ID: "r1", Status: model.CollabRejected}
	lookup := func(_ context.Context, a, b string) (*model.CollaborationRequest, error) {
		calls = append(calls, Pair{a, b})
		if a == profA && b == acctB {
			return hit, nil
		}
		return nil, nil
	}

	got, err := ResolveExistingRequest(context.Background(),
		CandidatePairs([]string{profA, acctA}, []string{profB, acctB}), lookup)
	require.NoError(t, err)
	assert.Same(t, hit, got)
	assert.Equal(t, []Pair{{profA, profB}, {profA, acctB}}, calls)
}

func TestResolveExistingRequest_NoneAndError(t *testing.T) {
	got, err := ResolveExistingRequest(context.Background(),
		CandidatePairs([]string{profA}, []string{profB}),
		func(context.Context, string, string) (*model.CollaborationRequest, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, got)

	boom := errors.New("db down")
	_, err = ResolveExistingRequest(context.Background(),
		CandidatePairs([]string{profA}, []string{profB}),
		func(context.Context, string, string) (*model.CollaborationRequest, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestBestEffort_RecoversPanic(t *testing.T) {
	err := BestEffort(context.Background(), "boom", func(context.Context) error { panic("kaboom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.NoError(t, BestEffort(context.Background(), "ok", func(context.Context) error { return nil }))
}
