package cmd

import (
	"context"

	"github.com/tvlink/tvlink/internal/models"
	"github.com/tvlink/tvlink/internal/profile"
	"github.com/tvlink/tvlink/internal/session"
	"github.com/tvlink/tvlink/internal/version"
	"github.com/tvlink/tvlink/pkg/httpclient"
)

// openStore opens the saved-profile database from the active configuration.
func openStore() (*profile.Store, error) {
	return profile.Open(appCfg.Store.Path, appLog)
}

// newSessionManager builds a session manager with the configured HTTP stack.
func newSessionManager() *session.Manager {
	userAgent := appCfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	client := httpclient.New(httpclient.Config{
		Timeout:             appCfg.HTTP.Timeout,
		RetryAttempts:       appCfg.HTTP.RetryAttempts,
		RetryDelay:          appCfg.HTTP.RetryDelay,
		RetryMaxDelay:       httpclient.DefaultRetryMaxDelay,
		BackoffMultiplier:   httpclient.DefaultBackoffMultiplier,
		UserAgent:           userAgent,
		Logger:              appLog,
		EnableDecompression: true,
	})

	return session.NewManager(session.Options{
		HTTPClient:      client.StandardClient(),
		Logger:          appLog,
		StalkerMaxPages: appCfg.Stalker.MaxPages,
		StalkerTimezone: appCfg.Stalker.Timezone,
	})
}

// loginWithProfile logs the manager in using a saved profile's credentials.
func loginWithProfile(ctx context.Context, mgr *session.Manager, p *models.Profile) error {
	return mgr.Login(ctx, session.LoginRequest{
		URL:      p.URL,
		Username: p.Username,
		Password: p.Password,
		MAC:      p.MAC,
		Forced:   p.Type,
	})
}
