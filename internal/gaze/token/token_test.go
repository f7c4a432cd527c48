package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"cog_mailing_sync/platform/logger"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, _ := s.Get(ctx); ok {
		t.Fatal("empty store should miss")
	}
	_ = s.Set(ctx, "eyJabc", time.Minute)
	if tok, ok, _ := s.Get(ctx); !ok || tok != "eyJabc" {
		t.Fatalf("got %q %v", tok, ok)
	}
	_ = s.Delete(ctx)
	if _, ok, _ := s.Get(ctx); ok {
		t.Fatal("deleted token should miss")
	}
}

func TestRedisStoreExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	s := NewRedisStore(rdb)

	if err := s.Set(ctx, "eyJshared", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if tok, ok, err := s.Get(ctx); err != nil || !ok || tok != "eyJshared" {
		t.Fatalf("got %q %v %v", tok, ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok, err := s.Get(ctx); err != nil || ok {
		t.Fatalf("expired token should miss, got ok=%v err=%v", ok, err)
	}
}

func TestSourceSharesOneLogin(t *testing.T) {
	var logins atomic.Int32
	release := make(chan struct{})
	login := LoginFunc(func(ctx context.Context) (string, error) {
		logins.Add(1)
		<-release
		return "eyJtoken", nil
	})
	src := NewSource(NewMemoryStore(), login, time.Hour, logger.Discard())

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := src.Token(context.Background())
			if err != nil {
				t.Errorf("token: %v", err)
			}
			results[i] = tok
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := logins.Load(); n != 1 {
		t.Fatalf("expected a single login, got %d", n)
	}
	for _, tok := range results {
		if tok != "eyJtoken" {
			t.Fatalf("unexpected token %q", tok)
		}
	}
}

func TestSourceInvalidateForcesLogin(t *testing.T) {
	var logins int
	login := LoginFunc(func(ctx context.Context) (string, error) {
		logins++
		return fmt.Sprintf("eyJ%d", logins), nil
	})
	src := NewSource(NewMemoryStore(), login, time.Hour, logger.Discard())
	ctx := context.Background()

	first, _ := src.Token(ctx)
	cached, _ := src.Token(ctx)
	if first != cached || logins != 1 {
		t.Fatalf("expected cached token, got %q then %q after %d logins", first, cached, logins)
	}

	src.Invalidate(ctx)
	second, _ := src.Token(ctx)
	if second == first || logins != 2 {
		t.Fatalf("expected a new login after invalidate, got %q", second)
	}
}

func TestSourceLoginFailure(t *testing.T) {
	login := LoginFunc(func(ctx context.Context) (string, error) {
		return "", errors.New("bad credentials")
	})
	src := NewSource(NewMemoryStore(), login, time.Hour, logger.Discard())

	if _, err := src.Token(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestFormActionDecodesEntitiesAndResolves(t *testing.T) {
	page := []byte(`<html><body>
<form id="kc-form-login" method="post" action="/realms/gaze/login-actions/authenticate?session_code=abc&amp;execution=def">
<input name="username"></form></body></html>`)
	base, _ := url.Parse("https://accounts.example.org/realms/gaze/protocol/openid-connect/auth?x=1")

	got, err := FormAction(page, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://accounts.example.org/realms/gaze/login-actions/authenticate?session_code=abc&execution=def"
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestFormActionMissing(t *testing.T) {
	if _, err := FormAction([]byte(`<html><body>maintenance</body></html>`), nil); err == nil {
		t.Fatal("expected an error for a page without a form")
	}
}

func TestFormLoginFlow(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, srv.URL+"/accounts")
	})
	mux.HandleFunc("/accounts", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "AUTH_SESSION", Value: "s1"})
		fmt.Fprint(w, `<form action="/authenticate?code=1&amp;tab=2"></form>`)
	})
	mux.HandleFunc("/authenticate", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("AUTH_SESSION"); err != nil {
			http.Error(w, "no session", http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("tab") != "2" {
			http.Error(w, "bad action", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("username") != "svc" || r.PostForm.Get("password") != "pw" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		if _, ok := r.PostForm["credentialId"]; !ok {
			http.Error(w, "missing credentialId", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "/done", http.StatusFound)
	})
	mux.HandleFunc("/done", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<script>window.token = \"eyJhbGciOi.payload.sig\";</script>")
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	l := NewFormLogin(Credentials{LoginURL: srv.URL + "/auth/login", Username: "svc", Password: "pw"}, srv.Client())
	tok, err := l.Login(context.Background())
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if tok != "eyJhbGciOi.payload.sig" {
		t.Fatalf("unexpected token %q", tok)
	}
}
