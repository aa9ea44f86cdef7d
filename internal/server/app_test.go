package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.StorageDriver = config.StorageMemory
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.LogLevel = "error"
	return c
}

func TestNewMailer_PicksImplementation(t *testing.T) {
	c := testConfig()

	m, err := newMailer(c, logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &mailer.LogMailer{}, m)

	c.SMTPHost = "smtp.example.com"
	m, err = newMailer(c, logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTPMailer{}, m)
}

func TestNewApp_UnknownStorage(t *testing.T) {
	c := testConfig()
	c.StorageDriver = "nope"

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
