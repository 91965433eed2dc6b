package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("captures the authorization code", func(t *testing.T) {
		handler := NewCallbackHandler("state-123")
		srv := httptest.NewServer(handler)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?code=auth-code&state=state-123")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "Authorization Successful") {
			t.Error("expected the success page")
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Code != "auth-code" {
			t.Errorf("expected code auth-code, got %q", result.Code)
		}

		// The channel closes after the single result.
		if _, open := <-handler.Result(); open {
			t.Error("expected result channel to be closed")
		}
	})

	t.Run("rejects a mismatched state", func(t *testing.T) {
		handler := NewCallbackHandler("state-123")
		srv := httptest.NewServer(handler)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?code=auth-code&state=wrong")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected a state error")
		}
		if !strings.Contains(result.Error().Error(), "state") {
			t.Errorf("unexpected error: %v", result.Error())
		}
	})

	t.Run("propagates a provider error", func(t *testing.T) {
		handler := NewCallbackHandler("state-123")
		srv := httptest.NewServer(handler)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?state=state-123&error=access_denied&error_description=User+declined")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected an authorization error")
		}
		if !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("unexpected error: %v", result.Error())
		}
	})

	t.Run("handles the callback only once", func(t *testing.T) {
		handler := NewCallbackHandler("state-123")
		srv := httptest.NewServer(handler)
		defer srv.Close()

		first, err := http.Get(srv.URL + "/callback?code=first&state=state-123")
		if err != nil {
			t.Fatalf("first request failed: %v", err)
		}
		first.Body.Close()

		second, err := http.Get(srv.URL + "/callback?code=second&state=state-123")
		if err != nil {
			t.Fatalf("second request failed: %v", err)
		}
		defer second.Body.Close()

		if second.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 on replay, got %d", second.StatusCode)
		}
		body, _ := io.ReadAll(second.Body)
		if !strings.Contains(string(body), "already processed") {
			t.Errorf("unexpected replay body: %s", body)
		}

		result := <-handler.Result()
		if result.Code != "first" {
			t.Errorf("expected the first code to win, got %q", result.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("filters by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "pong")
		}))

		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/ping")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 for GET, got %d", resp.StatusCode)
		}

		resp, err = http.Post(srv.URL+"/ping", "text/plain", nil)
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for POST, got %d", resp.StatusCode)
		}
	})

	t.Run("applies middleware in registration order", func(t *testing.T) {
		var order []string
		tag := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(tag("outer"), tag("inner"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()

		want := []string{"outer", "inner", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, order)
			}
		}
	})

	t.Run("registers every route of a handler", func(t *testing.T) {
		router := NewBasicRouter()
		handler := NewCallbackHandler("state-123")
		router.Handler(handler)

		srv := httptest.NewServer(router)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/callback?code=abc&state=state-123")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})
}
