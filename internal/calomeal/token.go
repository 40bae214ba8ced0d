package calomeal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/tbourn/dietbot/internal/config"
	"github.com/tbourn/dietbot/internal/domain"
	"github.com/tbourn/dietbot/internal/repo"
)

const (
	// refreshSkew refreshes tokens this long before they expire.
	refreshSkew = time.Minute
	// defaultLifetime applies when the token response omits expires_in.
	defaultLifetime = 86400 * time.Second
)

// TokenStore persists per-subject credentials.
type TokenStore interface {
	GetToken(ctx context.Context, subjectID string) (*domain.OAuthToken, error)
	SaveToken(ctx context.Context, subjectID, access, refresh string, expiresAt time.Time) error
}

// DBTokens is the TokenStore over the oauth_tokens table.
type DBTokens struct{ DB *gorm.DB }

func (s DBTokens) GetToken(ctx context.Context, subjectID string) (*domain.OAuthToken, error) {
	return repo.GetToken(ctx, s.DB, subjectID)
}

func (s DBTokens) SaveToken(ctx context.Context, subjectID, access, refresh string, expiresAt time.Time) error {
	return repo.SaveToken(ctx, s.DB, subjectID, access, refresh, expiresAt)
}

// TokenSource hands out a valid access token for a subject.
type TokenSource interface {
	// Token returns the stored token, refreshing it first when it is about to expire.
	Token(ctx context.Context, subjectID string) (string, error)
	// ForceRefresh refreshes regardless of the stored expiry.
	ForceRefresh(ctx context.Context, subjectID string) (string, error)
}

// OAuthConfig describes the Calomeal authorization server. Client
// credentials travel in the form body, as the provider requires.
func OAuthConfig(cfg config.CalomealConfig) *oauth2.Config {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/auth/authorize",
			TokenURL:  base + "/auth/accesstoken",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// StoreTokenSource refreshes tokens through OAuth and writes them back to Store.
type StoreTokenSource struct {
	Store TokenStore
	OAuth *oauth2.Config
	HTTP  *http.Client

	now func() time.Time
	mu  sync.Mutex
}

// NewTokenSource builds a token source for cfg. hc is used for the token
// endpoint; nil means a client with cfg.Timeout.
func NewTokenSource(cfg config.CalomealConfig, store TokenStore, hc *http.Client) *StoreTokenSource {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &StoreTokenSource{
		Store: store,
		OAuth: OAuthConfig(cfg),
		HTTP:  hc,
		now:   time.Now,
	}
}

func (s *StoreTokenSource) Token(ctx context.Context, subjectID string) (string, error) {
	return s.token(ctx, subjectID, false)
}

func (s *StoreTokenSource) ForceRefresh(ctx context.Context, subjectID string) (string, error) {
	return s.token(ctx, subjectID, true)
}

func (s *StoreTokenSource) token(ctx context.Context, subjectID string, force bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.Store.GetToken(ctx, subjectID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if !force && s.now().Add(refreshSkew).Before(cur.ExpiresAt) {
		return cur.AccessToken, nil
	}
	if cur.RefreshToken == "" {
		return "", fmt.Errorf("refresh token: %w", ErrUnauthorized)
	}

	log.Ctx(ctx).Info().Str("subject_id", subjectID).Bool("forced", force).Msg("refreshing calomeal token")

	// An empty access token makes the oauth2 source go straight to the refresh grant.
	ts := s.OAuth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: cur.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", wrapRetrieve(err))
	}
	if err := s.save(ctx, subjectID, tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Exchange trades an authorization code for tokens and stores them for subjectID.
func (s *StoreTokenSource) Exchange(ctx context.Context, subjectID, code string) error {
	tok, err := s.OAuth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", wrapRetrieve(err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, subjectID, tok)
}

// AuthCodeURL is where a subject is sent to grant access; state carries the subject ID.
func (s *StoreTokenSource) AuthCodeURL(subjectID string) string {
	return s.OAuth.AuthCodeURL(subjectID)
}

func (s *StoreTokenSource) save(ctx context.Context, subjectID string, tok *oauth2.Token) error {
	exp := tok.Expiry
	if exp.IsZero() {
		exp = s.now().Add(defaultLifetime)
	}
	if err := s.Store.SaveToken(ctx, subjectID, tok.AccessToken, tok.RefreshToken, exp); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *StoreTokenSource) oauthContext(ctx context.Context) context.Context {
	if s.HTTP == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.HTTP)
}

// wrapRetrieve turns a rejected grant into a StatusError.
func wrapRetrieve(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &StatusError{Op: "accesstoken", Code: re.Response.StatusCode, Body: string(re.Body)}
	}
	return err
}
