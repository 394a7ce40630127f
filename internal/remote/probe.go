package remote

import (
	"sync/atomic"

	"wandergram/internal/common"
)

// Probe is a settable connectivity flag. The engine polls it at the start
// of every sync call; whoever watches the platform's network state flips
// it with SetOnline.
type Probe struct {
	online atomic.Bool
}

var _ common.ConnectivityProbe = (*Probe)(nil)

// NewProbe starts online.
func NewProbe() *Probe {
	p := &Probe{}
	p.online.Store(true)
	return p
}

func (p *Probe) IsOnline() bool {
	return p.online.Load()
}

func (p *Probe) SetOnline(online bool) {
	p.online.Store(online)
}

// Session tracks the signed-in user for owner-scoped reads.
type Session struct {
	userID atomic.Int64
	signed atomic.Bool
}

var _ common.CurrentUserProvider = (*Session)(nil)

func NewSession() *Session {
	return &Session{}
}

func (s *Session) SignIn(userID int64) {
	s.userID.Store(userID)
	s.signed.Store(true)
}

func (s *Session) SignOut() {
	s.signed.Store(false)
	s.userID.Store(0)
}

func (s *Session) CurrentUserID() (int64, bool) {
	if !s.signed.Load() {
		return 0, false
	}
	return s.userID.Load(), true
}
