package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig_Options(t *testing.T) {
	cfg, err := poolConfig("postgres://u:p@localhost:5432/ref",
		WithMaxConns(7),
		WithConnectTimeout(3*time.Second))
	require.NoError(t, err)

	assert.Equal(t, int32(7), cfg.MaxConns)
	assert.Equal(t, 3*time.Second, cfg.ConnConfig.ConnectTimeout)
	assert.Equal(t, applicationName, cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_ZeroOptionsKeepDefaults(t *testing.T) {
	base, err := poolConfig("postgres://u:p@localhost:5432/ref")
	require.NoError(t, err)

	cfg, err := poolConfig("postgres://u:p@localhost:5432/ref", WithMaxConns(0), WithConnectTimeout(0))
	require.NoError(t, err)

	assert.Equal(t, base.MaxConns, cfg.MaxConns)
	assert.Equal(t, base.ConnConfig.ConnectTimeout, cfg.ConnConfig.ConnectTimeout)
}

func TestPoolConfig_KeepsApplicationNameFromDSN(t *testing.T) {
	cfg, err := poolConfig("postgres://u:p@localhost:5432/ref?application_name=loader")
	require.NoError(t, err)
	assert.Equal(t, "loader", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	_, err := poolConfig("postgres://u:p@localhost:notaport/ref")
	assert.Error(t, err)
}

func TestIsDuplicateKeyError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}

	assert.True(t, isDuplicateKeyError(dup))
	assert.True(t, isDuplicateKeyError(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(fmt.Errorf("plain")))
}
