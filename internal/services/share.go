package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"lecturepdf/internal/config"
)

// DocumentRoute is the path prefix under which signed documents are served.
const DocumentRoute = "/documents/"

var sigEncoding = base64.RawURLEncoding

// SignURL returns path with exp and sig query parameters. path is signed
// unescaped and escaped per segment in the result.
func SignURL(path string, expiresAt int64, secret string) string {
	var b strings.Builder
	b.WriteString(escapePath(path))
	b.WriteString("?exp=")
	b.WriteString(strconv.FormatInt(expiresAt, 10))
	b.WriteString("&sig=")
	b.WriteString(documentSignature(path, expiresAt, secret))
	return b.String()
}

func ValidateSignature(path string, expiresAt int64, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(documentSignature(path, expiresAt, secret)))
}

// ShareService issues expiring links to documents streamed by this
// process from the target store.
type ShareService struct {
	secret  string
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewShareService(cfg config.Config) *ShareService {
	return &ShareService{
		secret:  cfg.ShareSecret,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		ttl:     cfg.ShareTTL,
		now:     time.Now,
	}
}

// Link signs the document route for key and reports when it expires.
func (s *ShareService) Link(key string) (string, time.Time) {
	expiresAt := s.now().Add(s.ttl)
	return s.baseURL + SignURL(DocumentRoute+key, expiresAt.Unix(), s.secret), expiresAt
}

func (s *ShareService) URL(ctx context.Context, key string) (string, error) {
	link, _ := s.Link(key)
	return link, nil
}

// Validate checks a signature against the unescaped request path.
func (s *ShareService) Validate(path string, expires int64, signature string) bool {
	return ValidateSignature(path, expires, signature, s.secret)
}

func documentSignature(path string, expiresAt int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(path))
	mac.Write([]byte{':'})
	mac.Write([]byte(strconv.FormatInt(expiresAt, 10)))
	return sigEncoding.EncodeToString(mac.Sum(nil))
}
