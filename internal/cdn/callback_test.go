package cdn

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestCallbackServer(t *testing.T) {
	server, err := NewCallbackServer(0)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	port := server.Port()
	if port == 0 {
		t.Fatal("Server port should not be 0 after starting")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		q := url.Values{}
		q.Set(CookiePolicy, "p")
		q.Set(CookieSignature, "s")
		q.Set(CookieKeyPairID, "k")
		q.Set("state", "xyz")
		resp, err := http.Get(server.RedirectURI() + "?" + q.Encode())
		if err != nil {
			t.Errorf("Failed to make callback request: %v", err)
			return
		}
		_ = resp.Body.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if result.Cookies.KeyPairID != "k" {
		t.Errorf("KeyPairID = %q, want %q", result.Cookies.KeyPairID, "k")
	}
	if result.State != "xyz" {
		t.Errorf("State = %q, want %q", result.State, "xyz")
	}
	if result.Error != "" {
		t.Errorf("Error = %q, want empty", result.Error)
	}
}

func TestCallbackServerIncomplete(t *testing.T) {
	server, err := NewCallbackServer(0)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	go func() {
		time.Sleep(50 * time.Millisecond)
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?CloudFront-Policy=p", server.Port()))
		if err != nil {
			t.Errorf("Failed to make callback request: %v", err)
			return
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
		_ = resp.Body.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.Error == "" {
		t.Error("Error should be set for an incomplete cookie set")
	}
}

func TestCallbackServerForm(t *testing.T) {
	server, err := NewCallbackServer(0)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}
	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	form := url.Values{}
	form.Set(CookiePolicy, "p")
	form.Set(CookieSignature, "s")
	form.Set(CookieKeyPairID, "k")
	form.Set("state", "posted")

	resp, err := http.PostForm(server.RedirectURI(), form)
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.State != "posted" || result.Cookies.KeyPairID != "k" {
		t.Errorf("result = %+v", result)
	}
}

func TestCallbackServerRejectsOtherMethods(t *testing.T) {
	server, err := NewCallbackServer(0)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}
	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	req, err := http.NewRequest(http.MethodDelete, server.RedirectURI(), nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestCallbackServerTimeout(t *testing.T) {
	server, err := NewCallbackServer(0)
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}

	server.Start()
	defer func() { _ = server.Shutdown(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := server.Wait(ctx); err == nil {
		t.Error("Wait() should fail when the context expires")
	}
}

func TestLoginURL(t *testing.T) {
	got, err := LoginURL("https://music.example.com/auth?x=1", "http://127.0.0.1:9999/callback", "abc")
	if err != nil {
		t.Fatalf("LoginURL() error = %v", err)
	}
	u, _ := url.Parse(got)
	if u.Query().Get("redirect_uri") != "http://127.0.0.1:9999/callback" {
		t.Errorf("redirect_uri = %q", u.Query().Get("redirect_uri"))
	}
	if u.Query().Get("state") != "abc" || u.Query().Get("x") != "1" {
		t.Errorf("query = %q", u.RawQuery)
	}
}
