package service

import (
	"fmt"
	"log"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
	"github.com/reyer3/Pulso-Back-sub001/internal/obs"
)

// PasswordHasher wraps bcrypt with a configurable cost factor. Hashing is
// deliberately expensive, so concurrent calls go through a bounded semaphore
// and cannot starve unrelated request handling.
type PasswordHasher struct {
	cost      int
	sem       chan struct{}
	dummyHash string
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h := &PasswordHasher{
		cost: cost,
		sem:  make(chan struct{}, runtime.GOMAXPROCS(0)),
	}
	// Precomputed hash burned on lookups of nonexistent accounts, so the
	// missing-user path costs the same as a wrong password.
	dummy, err := bcrypt.GenerateFromPassword([]byte("pulso-timing-equalizer"), cost)
	if err != nil {
		log.Printf("warn: failed to precompute dummy hash: %v", err)
	} else {
		h.dummyHash = string(dummy)
	}
	return h
}

// Hash produces a salted, self-describing bcrypt hash. Two calls with the
// same password yield different hashes.
func (h *PasswordHasher) Hash(password string) (string, error) {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	start := time.Now()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	obs.ObservePasswordHash(time.Since(start))
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. Malformed hashes
// and internal errors yield false, never an error.
func (h *PasswordHasher) Verify(password, hash string) bool {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyDummy burns one bcrypt comparison without revealing anything. Used
// when the account does not exist.
func (h *PasswordHasher) VerifyDummy() {
	if h.dummyHash == "" {
		return
	}
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	_ = bcrypt.CompareHashAndPassword([]byte(h.dummyHash), []byte("pulso-timing-equalizer-miss"))
}

// PasswordPolicy validates candidate passwords before hashing.
type PasswordPolicy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireNumber  bool
	RequireSpecial bool
}

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	numberRe  = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};:"\\|,.<>?]`)
	seqNumRe  = regexp.MustCompile(`(012|123|234|345|456|567|678|789|890)`)
	seqAlpRe  = regexp.MustCompile(`(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz)`)
)

// hasTripleRepeat reports whether s contains the same rune three or more
// times in a row. RE2 has no backreferences, so this is a plain scan.
func hasTripleRepeat(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= 3 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

var commonPasswords = map[string]bool{
	"password": true, "123456": true, "123456789": true, "qwerty": true,
	"abc123": true, "password123": true, "admin": true, "letmein": true,
	"welcome": true, "monkey": true,
}

// Validate returns the list of violated rules; an empty slice means the
// password is acceptable.
func (p PasswordPolicy) Validate(password string) []string {
	var problems []string

	if len(password) < p.MinLength {
		problems = append(problems, "password is too short")
	}
	if p.RequireUpper && !upperRe.MatchString(password) {
		problems = append(problems, "password must contain an uppercase letter")
	}
	if p.RequireLower && !lowerRe.MatchString(password) {
		problems = append(problems, "password must contain a lowercase letter")
	}
	if p.RequireNumber && !numberRe.MatchString(password) {
		problems = append(problems, "password must contain a number")
	}
	if p.RequireSpecial && !specialRe.MatchString(password) {
		problems = append(problems, "password must contain a special character")
	}

	lowered := strings.ToLower(password)
	if hasTripleRepeat(lowered) {
		problems = append(problems, "password cannot repeat the same character three times")
	}
	if seqNumRe.MatchString(lowered) {
		problems = append(problems, "password cannot contain sequential numbers")
	}
	if seqAlpRe.MatchString(lowered) {
		problems = append(problems, "password cannot contain sequential letters")
	}
	if commonPasswords[lowered] {
		problems = append(problems, "password is too common")
	}

	return problems
}

// Check wraps Validate into a single error carrying the first violation.
func (p PasswordPolicy) Check(password string) error {
	problems := p.Validate(password)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", autherror.ErrWeakPassword, problems[0])
}
