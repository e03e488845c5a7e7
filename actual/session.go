// Package actual talks to an Actual Budget server over its HTTP API and
// exposes it as the investsync ledger.
//
// A Session is one logical ledger connection: opened at the start of a
// reconciliation pass, closed at the end, never shared between passes.
package actual

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"investsync"
)

// Environment configuration, matching the deployment's .env file.
const (
	envServerURL      = "ACTUAL_SERVER_URL"
	envPassword       = "ACTUAL_PASSWORD"
	envSyncID         = "ACTUAL_SYNC_ID"
	envBudgetPassword = "ACTUAL_BUDGET_ENCRYPTION_PASSWORD"
	envDataDir        = "DATA_DIR"
	envBudgetDir      = "BUDGET_DIR"
)

// Config carries the ledger connection parameters.
type Config struct {
	ServerURL string
	Password  string
	SyncID    string
	// BudgetPassword decrypts an end-to-end encrypted budget. Optional.
	BudgetPassword string
	// BudgetDir is where the server-side budget cache lives locally.
	BudgetDir string
}

// ConfigFromEnv builds the ledger configuration from the environment. The
// server URL, password and sync id are hard preconditions.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		ServerURL:      os.Getenv(envServerURL),
		Password:       os.Getenv(envPassword),
		SyncID:         os.Getenv(envSyncID),
		BudgetPassword: os.Getenv(envBudgetPassword),
	}
	if cfg.ServerURL == "" || cfg.Password == "" || cfg.SyncID == "" {
		return Config{}, &investsync.ConfigError{
			Reason: fmt.Sprintf("please set %s, %s and %s", envServerURL, envPassword, envSyncID),
		}
	}

	dataDir := os.Getenv(envDataDir)
	if dataDir == "" {
		dataDir = "data"
	}
	cfg.BudgetDir = os.Getenv(envBudgetDir)
	if cfg.BudgetDir == "" {
		cfg.BudgetDir = filepath.Join(dataDir, "budget")
	}
	return cfg, nil
}

// Session is one authenticated connection to the Actual server. The
// downloaded flag tracks whether the budget file has been pulled during
// this session; it is session state, not process state, so reopening a
// session always re-downloads.
type Session struct {
	cfg    Config
	client *http.Client
	base   *url.URL
	token  string

	downloaded bool
}

// NewSession prepares a session for the given configuration. No network
// traffic happens until Open.
func NewSession(cfg Config) (*Session, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.ServerURL, "/"))
	if err != nil {
		return nil, &investsync.ConfigError{Reason: fmt.Sprintf("invalid %s %q: %v", envServerURL, cfg.ServerURL, err)}
	}
	return &Session{cfg: cfg, client: http.DefaultClient, base: base}, nil
}

// Open authenticates against the server and downloads the budget once for
// this session, then syncs it so balances reflect "now".
func Open() (*Session, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// Connect performs the session handshake: login, one budget download per
// session, then a sync.
func (s *Session) Connect() error {
	if s.cfg.BudgetDir != "" {
		if err := os.MkdirAll(s.cfg.BudgetDir, 0755); err != nil {
			return fmt.Errorf("cannot create budget dir %q: %w", s.cfg.BudgetDir, err)
		}
	}

	log.Println("connecting to Actual server", s.base.Host)
	var login struct {
		Token string `json:"token"`
	}
	if err := s.call(http.MethodPost, "/account/login", map[string]string{"password": s.cfg.Password}, &login); err != nil {
		return fmt.Errorf("cannot log in to Actual server: %w", err)
	}
	s.token = login.Token

	if !s.downloaded {
		body := map[string]string{}
		if s.cfg.BudgetPassword != "" {
			body["password"] = s.cfg.BudgetPassword
		}
		if err := s.call(http.MethodPost, s.budgetPath("/download"), body, nil); err != nil {
			log.Printf("warning: cannot download budget: %v", err)
		} else {
			s.downloaded = true
		}
	}

	if err := s.call(http.MethodPost, s.budgetPath("/sync"), nil, nil); err != nil {
		log.Printf("warning: cannot sync budget: %v", err)
	}
	return nil
}

// Close ends the session. The next session starts from a fresh download.
func (s *Session) Close() error {
	s.downloaded = false
	if s.token == "" {
		return nil
	}
	err := s.call(http.MethodPost, "/account/logout", nil, nil)
	s.token = ""
	return err
}

func (s *Session) budgetPath(suffix string) string {
	return "/v1/budgets/" + url.PathEscape(s.cfg.SyncID) + suffix
}

// call performs one API request. Responses wrap their payload in a "data"
// envelope; out, when non-nil, receives that payload.
func (s *Session) call(method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.base.String()+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("X-Actual-Token", s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("unexpected response for %s %s: %w", method, path, err)
	}
	raw := envelope.Data
	if raw == nil {
		// some endpoints answer the payload bare
		raw = payload
	}
	return json.Unmarshal(raw, out)
}
