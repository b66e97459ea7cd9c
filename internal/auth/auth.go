package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"memebattle/internal/players"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// claims carries the player's profile; the subject is the player ID.
type claims struct {
	Name           string `json:"username"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	WinningMessage string `json:"winningMessage,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HMAC-signed identity tokens. With an empty secret it runs
// in dev mode and trusts the userId and name query parameters.
type Verifier struct {
	secretKey []byte
}

func NewVerifier(secretKey string) *Verifier {
	return &Verifier{secretKey: []byte(secretKey)}
}

func (v *Verifier) DevMode() bool {
	return len(v.secretKey) == 0
}

func (v *Verifier) Issue(ident players.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Name:           ident.Name,
		AvatarURL:      ident.AvatarURL,
		WinningMessage: ident.WinningMessage,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secretKey)
}

func (v *Verifier) Verify(tokenString string) (players.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secretKey, nil
	})
	if err != nil {
		return players.Identity{}, ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return players.Identity{}, ErrInvalidToken
	}
	name := c.Name
	if name == "" {
		name = c.Subject
	}
	return players.Identity{
		ID:             c.Subject,
		Name:           name,
		AvatarURL:      c.AvatarURL,
		WinningMessage: c.WinningMessage,
	}, nil
}

// FromRequest resolves the caller of a WebSocket upgrade. Browsers cannot set
// headers on the upgrade, so the token may also come as ?token=.
func (v *Verifier) FromRequest(r *http.Request) (players.Identity, error) {
	q := r.URL.Query()
	if v.DevMode() {
		id := strings.TrimSpace(q.Get("userId"))
		if id == "" {
			return players.Identity{}, ErrMissingToken
		}
		name := strings.TrimSpace(q.Get("name"))
		if name == "" {
			name = id
		}
		return players.Identity{
			ID:             id,
			Name:           name,
			AvatarURL:      q.Get("avatarUrl"),
			WinningMessage: q.Get("winningMessage"),
		}, nil
	}

	token := q.Get("token")
	if h := r.Header.Get("Authorization"); token == "" && h != "" {
		token, _ = strings.CutPrefix(h, "Bearer ")
	}
	if token == "" {
		return players.Identity{}, ErrMissingToken
	}
	return v.Verify(token)
}
