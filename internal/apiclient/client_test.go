package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second, nil)
	c.SetToken("t1")

	var out map[string]any
	if err := c.Get(context.Background(), "/accounts/search", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer t1" {
		t.Fatalf("expected Bearer t1 header, got %q", gotAuth)
	}

	c.ClearToken()
	if err := c.Get(context.Background(), "/accounts/search", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header after ClearToken, got %q", gotAuth)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantKind string
		wantMsg  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"invalid or expired token"}`, KindAuth, "invalid or expired token"},
		{"forbidden", http.StatusForbidden, `{"message":"no"}`, KindAuth, "no"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"message":"insufficient funds in source account"}`, KindServer, "insufficient funds in source account"},
		{"plain body", http.StatusInternalServerError, `boom`, KindServer, "boom"},
		{"empty body", http.StatusNotFound, ``, KindServer, "Not Found"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c := New(ts.URL, time.Second, nil)
			err := c.Post(context.Background(), "/x", nil, nil)
			apiErr, ok := AsError(err)
			if !ok {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Kind != tc.wantKind {
				t.Errorf("kind: expected %s, got %s", tc.wantKind, apiErr.Kind)
			}
			if apiErr.Message != tc.wantMsg {
				t.Errorf("message: expected %q, got %q", tc.wantMsg, apiErr.Message)
			}
			if apiErr.Status != tc.status {
				t.Errorf("status: expected %d, got %d", tc.status, apiErr.Status)
			}
		})
	}
}

func TestClient_NetworkErrorKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused from here on

	c := New(ts.URL, time.Second, nil)
	err := c.Get(context.Background(), "/x", nil)
	apiErr, ok := AsError(err)
	if !ok || apiErr.Kind != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestClient_AuthErrorHook(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"expired"}`))
	}))
	defer ts.Close()

	c := New(ts.URL, time.Second, nil)
	fired := 0
	c.SetAuthErrorHook(func() { fired++ })

	if err := c.Get(context.Background(), "/x", nil); err == nil {
		t.Fatal("expected error")
	}
	if fired != 1 {
		t.Fatalf("expected hook to fire once, fired %d times", fired)
	}
	if !IsAuth(c.Get(context.Background(), "/x", nil)) {
		t.Fatal("expected IsAuth to report true")
	}
}

func TestEndpointLabel(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/accounts/search?name=sav&number=10", "/accounts/search"},
		{"/accounts/0b9f4991-2b1c-4dfd-9c3b-16a2f8b5c8a1", "/accounts/{id}"},
		{"/transactions/account/0b9f4991-2b1c-4dfd-9c3b-16a2f8b5c8a1", "/transactions/account/{id}"},
		{"/users/login", "/users/login"},
	}
	for _, tc := range cases {
		if got := endpointLabel(tc.in); got != tc.want {
			t.Errorf("endpointLabel(%q) = %q, expected %q", tc.in, got, tc.want)
		}
	}
}
