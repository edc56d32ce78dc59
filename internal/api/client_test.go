package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dkjgA893274/fastapi-freamarket/internal/apitest"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
)

func TestLogin_SendsFormAndReturnsToken(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	srv.AddUser("alice", "password123")

	c := New(srv.URL)
	tok, err := c.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("unexpected token: %+v", tok)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].ContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type: %q", reqs[0].ContentType)
	}
	form, err := url.ParseQuery(reqs[0].Body)
	if err != nil {
		t.Fatalf("parse form body: %v", err)
	}
	if form.Get("username") != "alice" || form.Get("password") != "password123" {
		t.Fatalf("unexpected form: %v", form)
	}
	if reqs[0].RequestID == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestLogin_RejectedCarriesDetail(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	srv.FailNext(http.MethodPost, "/auth/login", http.StatusUnauthorized, "Invalid credentials")

	_, err := New(srv.URL).Login(context.Background(), "alice", "wrong")
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	if ae.StatusCode != http.StatusUnauthorized || ae.Detail != "Invalid credentials" {
		t.Fatalf("unexpected error: %+v", ae)
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("IsStatus should match 401")
	}
}

func TestDetail_ValidationListIsFlattened(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	err := New(srv.URL).Signup(context.Background(), "a", "short")
	if !IsStatus(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected 422, got %v", err)
	}
	got := DetailOf(err)
	want := "String should have at least 2 characters; String should have at least 8 characters"
	if got != want {
		t.Fatalf("detail:\n got: %q\nwant: %q", got, want)
	}
}

func TestDetail_MissingOrNonJSONIsEmpty(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	srv.FailNext(http.MethodGet, "/items", http.StatusInternalServerError, nil)
	srv.FailNextRaw(http.MethodGet, "/items", http.StatusBadGateway, "<html>bad gateway</html>")

	c := New(srv.URL)
	tests := []struct {
		status  int
		notJSON bool
	}{
		{status: http.StatusInternalServerError, notJSON: false},
		{status: http.StatusBadGateway, notJSON: true},
	}
	for _, tt := range tests {
		_, err := c.ListItems(context.Background(), "tok")
		var ae *Error
		if !errors.As(err, &ae) || ae.StatusCode != tt.status {
			t.Fatalf("expected status %d, got %v", tt.status, err)
		}
		if d := DetailOf(err); d != "" {
			t.Fatalf("expected empty detail, got %q", d)
		}
		if ae.NotJSON != tt.notJSON {
			t.Fatalf("status %d: NotJSON = %t, want %t", tt.status, ae.NotJSON, tt.notJSON)
		}
	}
}

func TestItems_CRUDWithBearer(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	srv.AddUser("alice", "password123")
	tok := srv.IssueToken("alice")
	ctx := context.Background()
	c := New(srv.URL)

	items, err := c.ListItems(ctx, tok)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}

	price := 150
	created, err := c.CreateItem(ctx, tok, model.NewItem{Name: "Pen", Description: "Blue ink", Price: &price})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if created.ID == 0 || created.Price != 150 || created.Status != model.ItemStatusOnSale {
		t.Fatalf("unexpected created item: %+v", created)
	}

	got, err := c.GetItem(ctx, tok, created.ID)
	if err != nil || got.Name != "Pen" {
		t.Fatalf("GetItem: %+v, %v", got, err)
	}

	sold := model.ItemStatusSoldOut
	updated, err := c.UpdateItem(ctx, tok, created.ID, model.ItemUpdate{Status: &sold})
	if err != nil || updated.Status != model.ItemStatusSoldOut || updated.Name != "Pen" {
		t.Fatalf("UpdateItem: %+v, %v", updated, err)
	}

	found, err := c.SearchItems(ctx, tok, "Pe")
	if err != nil || len(found) != 1 {
		t.Fatalf("SearchItems: %+v, %v", found, err)
	}

	if err := c.DeleteItem(ctx, tok, created.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	err = c.DeleteItem(ctx, tok, created.ID)
	if !IsStatus(err, http.StatusNotFound) || DetailOf(err) != "Item not deleted" {
		t.Fatalf("expected 404 Item not deleted, got %v", err)
	}

	for _, r := range srv.Requests() {
		if strings.HasPrefix(r.Path, "/items") {
			if r.Authorization != "Bearer "+tok {
				t.Fatalf("%s %s: expected bearer header, got %q", r.Method, r.Path, r.Authorization)
			}
		}
	}
}

func TestCreateItem_NilPriceIsSentAsNull(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	srv.AddUser("alice", "password123")
	tok := srv.IssueToken("alice")

	_, err := New(srv.URL).CreateItem(context.Background(), tok, model.NewItem{Name: "Pen", Description: "x"})
	if !IsStatus(err, http.StatusUnprocessableEntity) {
		t.Fatalf("expected backend to reject null price, got %v", err)
	}
	reqs := srv.Requests()
	if !strings.Contains(reqs[len(reqs)-1].Body, `"price":null`) {
		t.Fatalf("expected null price in body, got %s", reqs[len(reqs)-1].Body)
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	// Nothing listens on port 1.
	c := New("http://127.0.0.1:1", WithTimeout(2*time.Second))
	_, err := c.ListItems(context.Background(), "tok")
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %T (%v)", err, err)
	}
}

func TestDecodeError_MalformedSuccessBody(t *testing.T) {
	t.Parallel()

	srv := apitest.New(t)
	srv.FailNextRaw(http.MethodPost, "/auth/login", http.StatusOK, "not json")

	_, err := New(srv.URL).Login(context.Background(), "alice", "pw")
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T (%v)", err, err)
	}
}
