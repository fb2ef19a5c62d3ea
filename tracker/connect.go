package tracker

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// connectTokenTTL is the lifetime of per-request Connect JWTs.
const connectTokenTTL = 3 * time.Minute

// connectClaims are the registered claims plus the query string hash
// Atlassian Connect requires.
type connectClaims struct {
	jwt.RegisteredClaims
	QSH string `json:"qsh"`
}

// signConnectJWT creates a Connect-style JWT for the request: HS256 over
// iss/iat/exp and the canonical request hash.
func signConnectJWT(issuer, sharedSecret string, req *http.Request) (string, error) {
	now := time.Now()
	claims := connectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(connectTokenTTL)),
		},
		QSH: queryStringHash(req),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(sharedSecret))
}

// queryStringHash computes the canonical request hash:
// sha256("METHOD&path&sortedQuery").
func queryStringHash(req *http.Request) string {
	path := req.URL.Path
	if path == "" {
		path = "/"
	}

	params := req.URL.Query()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []string
	for _, name := range names {
		values := append([]string(nil), params[name]...)
		sort.Strings(values)
		pairs = append(pairs, name+"="+strings.Join(values, ","))
	}

	canonical := strings.ToUpper(req.Method) + "&" + path + "&" + strings.Join(pairs, "&")
	digest := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(digest[:])
}
