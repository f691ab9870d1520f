package auth

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-16-chars"

func newTestSigner(t *testing.T) *StateSigner {
	t.Helper()
	s, err := NewStateSigner(testSecret)
	if err != nil {
		t.Fatalf("NewStateSigner() error = %v", err)
	}
	return s
}

func TestNewStateSigner_ShortSecret(t *testing.T) {
	_, err := NewStateSigner("short")
	if err == nil {
		t.Fatal("expected error for secret shorter than 16 chars")
	}
}

func TestIssueVerify(t *testing.T) {
	s := newTestSigner(t)

	state, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(state, ".") != 2 {
		t.Errorf("state %q is not a JWT", state)
	}

	if err := s.Verify(state); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_SingleUse(t *testing.T) {
	s := newTestSigner(t)
	state, _ := s.Issue()

	if err := s.Verify(state); err != nil {
		t.Fatalf("first Verify() error = %v", err)
	}
	if err := s.Verify(state); err == nil {
		t.Error("second Verify() of the same state should fail")
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newTestSigner(t)
	state, _ := s.IssueWithTTL(-time.Minute)

	err := s.Verify(state)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("Verify() error = %v, want expired", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := newTestSigner(t)
	other, _ := NewStateSigner("a-completely-different-secret")
	state, _ := issuer.Issue()

	if err := other.Verify(state); err == nil {
		t.Error("Verify() with the wrong secret should fail")
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := newTestSigner(t)

	for _, state := range []string{"", "not-a-jwt", "a.b.c"} {
		if err := s.Verify(state); err == nil {
			t.Errorf("Verify(%q) should fail", state)
		}
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	s := newTestSigner(t)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ID:        "x",
		Issuer:    stateIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	state, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	if err := s.Verify(state); err == nil {
		t.Error("Verify() must reject alg=none")
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	s := newTestSigner(t)
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "x",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	state, _ := foreign.SignedString([]byte(testSecret))

	if err := s.Verify(state); err == nil {
		t.Error("Verify() must reject a foreign issuer")
	}
}

// Concurrent callbacks carrying the same state: exactly one may win.
func TestVerify_SingleUseUnderConcurrency(t *testing.T) {
	s := newTestSigner(t)
	state, err := s.Issue()
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	const callers = 50
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		wins  atomic.Int32
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.Verify(state) == nil {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("successful verifications = %d, want 1", got)
	}
}
