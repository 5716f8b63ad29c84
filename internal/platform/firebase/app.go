// Package firebase owns the process-wide Firebase app and the clients
// derived from it.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/jsamuelsen/quotes-api/internal/platform/config"
)

// App is initialized once at startup and shared by every request.
// Clients are created lazily and cached.
type App struct {
	app *fb.App

	mu        sync.Mutex
	auth      *auth.Client
	firestore *firestore.Client
}

// Options returns client options for cfg. Without a credentials file the
// Google application default credentials are used.
func Options(cfg config.FirebaseConfig) []option.ClientOption {
	if cfg.CredentialsFile == "" {
		return nil
	}

	return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
}

// New initializes the Firebase app.
func New(ctx context.Context, cfg config.FirebaseConfig) (*App, error) {
	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, Options(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	return &App{app: app}, nil
}

// Auth returns the Firebase Authentication client.
func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.auth != nil {
		return a.auth, nil
	}

	client, err := a.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firebase auth client: %w", err)
	}

	a.auth = client

	return client, nil
}

// Firestore returns the Cloud Firestore client. It is closed by Close.
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.firestore != nil {
		return a.firestore, nil
	}

	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	a.firestore = client

	return client, nil
}

// Close releases the Firestore connection if one was opened.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.firestore == nil {
		return nil
	}

	err := a.firestore.Close()
	a.firestore = nil

	if err != nil {
		return errors.Join(errors.New("closing firestore client"), err)
	}

	return nil
}
