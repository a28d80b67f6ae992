// Package sshserver serves the terminal UI over SSH.
package sshserver

import (
	"context"
	"sync/atomic"

	"trading-assistant/internal/repository"
	"trading-assistant/internal/tui"
	"trading-assistant/pkg/logger"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"
)

type contextKey string

const userContextKey contextKey = "ssh-user"

// Anonymous sessions get ids above this so they never share history with
// registered users.
const anonymousUserBase int64 = 1 << 32

// UserStore is satisfied by *repository.SSHUserRepository.
type UserStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.SSHUser, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

type Config struct {
	Addr        string
	HostKeyPath string
	Watchlist   []string
}

type Server struct {
	store     UserStore
	market    tui.MarketQuerier
	advisor   tui.AdvisorQuerier
	watchlist []string
	anonymous atomic.Int64
	log       *logger.Logger
}

// New builds the session handler. A nil store admits every key as an
// anonymous user.
func New(store UserStore, market tui.MarketQuerier, advisor tui.AdvisorQuerier, watchlist []string) *Server {
	return &Server{
		store:     store,
		market:    market,
		advisor:   advisor,
		watchlist: append([]string(nil), watchlist...),
		log:       logger.Get().With("component", "ssh"),
	}
}

// NewWishServer returns an SSH server running the TUI for every
// authenticated session.
func NewWishServer(cfg Config, s *Server) (*ssh.Server, error) {
	if len(cfg.Watchlist) > 0 {
		s.watchlist = append([]string(nil), cfg.Watchlist...)
	}
	return wish.NewServer(
		wish.WithAddress(cfg.Addr),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPublicKeyAuth(s.Authenticate),
		wish.WithMiddleware(
			bubbletea.Middleware(s.Handler),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
}

func (s *Server) Authenticate(ctx ssh.Context, key ssh.PublicKey) bool {
	user, ok := s.resolveUser(ctx, ctx.User(), Fingerprint(key))
	if !ok {
		return false
	}
	ctx.SetValue(userContextKey, user)
	return true
}

func (s *Server) Handler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	user, _ := sess.Context().Value(userContextKey).(*repository.SSHUser)
	m := tui.NewAppModel(s.services(user, sess.User()))
	if pty, _, ok := sess.Pty(); ok {
		m.SetSize(pty.Window.Width, pty.Window.Height)
	}
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

func (s *Server) resolveUser(ctx context.Context, username, fingerprint string) (*repository.SSHUser, bool) {
	if s.store == nil {
		return &repository.SSHUser{
			ID:          anonymousUserBase + s.anonymous.Add(1),
			Username:    username,
			Fingerprint: fingerprint,
		}, true
	}

	user, err := s.store.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		s.log.Errorw("ssh user lookup failed", "fingerprint", fingerprint, "error", err)
		return nil, false
	}
	if user == nil {
		s.log.Warnw("rejected unknown ssh key", "user", username, "fingerprint", fingerprint)
		return nil, false
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warnw("failed to record ssh login", "user_id", user.ID, "error", err)
	}
	return user, true
}

func (s *Server) services(user *repository.SSHUser, sessionUser string) tui.Services {
	svc := tui.Services{
		Market:    s.market,
		Advisor:   s.advisor,
		Watchlist: s.watchlist,
		Username:  sessionUser,
	}
	if user != nil {
		svc.UserID = user.ID
		if user.Username != "" {
			svc.Username = user.Username
		}
	}
	return svc
}

func Fingerprint(key gossh.PublicKey) string {
	return gossh.FingerprintSHA256(key)
}
