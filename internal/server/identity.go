package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"tailscale.com/client/tailscale/apitype"
)

type ctxKey int

const userInfoKey ctxKey = iota

// actorNamespace scopes actor ids derived from tailnet login names.
var actorNamespace = uuid.MustParse("5b0d8f3e-3f43-4c55-9a4e-7b1f0c6d2a91")

// UserInfo identifies the caller of a request.
type UserInfo struct {
	Login       string    `json:"login"`
	DisplayName string    `json:"display_name"`
	ActorID     uuid.UUID `json:"actor_id"`
}

// WhoIser resolves a tailnet peer address. *local.Client from tsnet
// satisfies it.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// ActorForLogin derives the stable actor id of a tailnet login.
func ActorForLogin(login string) uuid.UUID {
	return uuid.NewSHA1(actorNamespace, []byte(login))
}

// identity stores the caller's UserInfo in the request context. On the
// tailnet the caller is the peer's login; otherwise an X-Actor-ID header or
// the default actor is used.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.devIdentity(r)
		if s.whois != nil {
			who, err := s.whois.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who == nil || who.UserProfile == nil {
				s.log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown tailnet peer"})
				return
			}
			info = UserInfo{
				Login:       who.UserProfile.LoginName,
				DisplayName: who.UserProfile.DisplayName,
				ActorID:     ActorForLogin(who.UserProfile.LoginName),
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userInfoKey, info)))
	})
}

func (s *Server) devIdentity(r *http.Request) UserInfo {
	info := UserInfo{Login: "local", DisplayName: "Local Dev User", ActorID: s.defaultActor}
	if v := r.Header.Get("X-Actor-ID"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			info.ActorID = id
		}
	}
	return info
}

// userInfoFromContext returns the caller identity, falling back to the local
// user with the zero actor.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{Login: "local", DisplayName: "Local Dev User"}
}

func actorFromContext(r *http.Request) uuid.UUID {
	return userInfoFromContext(r).ActorID
}
