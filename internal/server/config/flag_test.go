package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

	os.Args = []string{"cmd",
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
		"-t", "15", "-r", "3", "-k", "a2V5", "-z=true",
		"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
	}

	config := &Config{}
	require.NotPanics(t, func() { parseFlags(config) })

	assert.Equal(t, "127.0.0.1:9090", config.EndpointAddrHTTP)
	assert.Equal(t, "db", config.DatabaseDSN)
	assert.Equal(t, "secret", config.SecretKey)
	assert.Equal(t, 15*time.Minute, config.AccessTokenTTL)
	assert.Equal(t, 3*24*time.Hour, config.RefreshTokenTTL)
	assert.Equal(t, "a2V5", config.EncryptionKey)
	assert.True(t, config.CookieSecure)
	assert.Equal(t, "user", config.S3RootUser)
	assert.Equal(t, "password", config.S3RootPassword)
	assert.Equal(t, "bucket", config.S3Bucket)
	assert.Equal(t, "us-west-1", config.S3Region)
	assert.Equal(t, "http://endpoint", config.S3BaseEndpoint)
}

func TestParseFlags_IgnoresUnknownFlags(t *testing.T) {

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

	os.Args = []string{"cmd", "-a", ":7070", "--unrelated=x", "-q", "y"}

	config := &Config{}
	config.LoadDefaults()
	require.NotPanics(t, func() { parseFlags(config) })

	assert.Equal(t, ":7070", config.EndpointAddrHTTP)
	assert.Equal(t, "secretKey", config.SecretKey)
}
