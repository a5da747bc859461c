package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"espace-clubs-backend/constants"
	"espace-clubs-backend/utils"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// visitorTTL est la durée après laquelle un limiteur inutilisé est oublié
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limite le nombre de requêtes par adresse IP (connexion, inscription)
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	rate        rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter autorise perMinute requêtes par minute et par IP, en rafale comprise
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &RateLimiter{
		visitors:    make(map[string]*visitor),
		rate:        rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       perMinute,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// allow consomme un jeton pour la clé
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > visitorTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastCleanup = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Handler applique la limite
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			log.WithFields(log.Fields{"ip": ip, "path": r.URL.Path}).Warn("⚠️  Limite de requêtes atteinte")
			w.Header().Set("Retry-After", "60")
			utils.RespondError(w, http.StatusTooManyRequests, constants.ErrTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP retourne l'IP d'origine, derrière un proxy compris
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
