package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_RequiresURL(t *testing.T) {
	_, err := NewPool(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestNewPool_RejectsMalformedURL(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to parse")
}
