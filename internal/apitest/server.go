// Package apitest is an in-process stand-in for the items backend.
//
// It follows the FastAPI app's routes and response shapes closely enough to exercise the client:
// form login, JSON signup, bearer-protected item mutations, owner-only lookups, and
// {"detail": ...} error bodies (string for HTTP errors, list for validation errors).
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkjgA893274/fastapi-freamarket/internal/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// Request is a recorded incoming request.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	RequestID     string
	Body          string
}

type failure struct {
	status int
	detail any
	raw    string
}

type Server struct {
	URL string

	srv *httptest.Server

	mu       sync.Mutex
	users    map[string]user
	secret   []byte
	items    []storedItem
	nextItem int
	nextUser int
	requests []Request
	failures map[string][]failure // "METHOD /path" -> queued failures

	// OnRequest runs before routing, outside the server lock. Tests use it to hold
	// a request open (e.g. to make a reload finish late).
	OnRequest func(r *http.Request)
}

type user struct {
	id   int
	hash []byte
}

type storedItem struct {
	item  model.Item
	owner int
}

// New starts a fake backend that is closed when tb finishes.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		users:    map[string]user{},
		secret:   []byte(uuid.NewString()),
		failures: map[string][]failure{},
		nextItem: 1,
		nextUser: 1,
	}
	s.srv = httptest.NewServer(s.router())
	s.URL = s.srv.URL
	tb.Cleanup(s.srv.Close)
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	r.HandleFunc("/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/items", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/items/", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/items", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/items/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/items/{id:[0-9]+}", s.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/items/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	return r
}

// AddUser registers a user directly, bypassing /auth/signup.
func (s *Server) AddUser(username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = user{id: s.nextUser, hash: hash}
	s.nextUser++
}

// tokenClaims mirrors the backend's JWT payload: {"sub": username, "id": user id, "exp": ...}.
type tokenClaims struct {
	UserID int `json:"id"`
	jwt.StandardClaims
}

// IssueToken returns a valid bearer token for an existing user.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	id := s.users[username].id
	s.mu.Unlock()

	claims := tokenClaims{
		UserID: id,
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			Id:        uuid.NewString(),
			ExpiresAt: time.Now().Add(20 * time.Minute).Unix(),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return tok
}

// AddItem stores an item owned by username and returns it with its assigned id.
func (s *Server) AddItem(username string, it model.Item) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.nextItem
	s.nextItem++
	if it.Status == "" {
		it.Status = model.ItemStatusOnSale
	}
	owner := s.users[username].id
	it.UserID = owner
	s.items = append(s.items, storedItem{item: it, owner: owner})
	return it
}

func (s *Server) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, 0, len(s.items))
	for _, st := range s.items {
		out = append(out, st.item)
	}
	return out
}

// FailNext makes the next request matching method+path answer status with {"detail": detail}.
// A nil detail sends "{}".
func (s *Server) FailNext(method, path string, status int, detail any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.failures[k] = append(s.failures[k], failure{status: status, detail: detail})
}

// FailNextRaw is FailNext with a verbatim (possibly non-JSON) body.
func (s *Server) FailNextRaw(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.failures[k] = append(s.failures[k], failure{status: status, raw: body})
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		k := r.Method + " " + r.URL.Path
		var f *failure
		if q := s.failures[k]; len(q) > 0 {
			f = &q[0]
			s.failures[k] = q[1:]
		}
		hook := s.OnRequest
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if f != nil {
			if f.raw != "" {
				w.WriteHeader(f.status)
				_, _ = io.WriteString(w, f.raw)
				return
			}
			if f.detail == nil {
				writeJSON(w, f.status, map[string]any{})
				return
			}
			writeJSON(w, f.status, map[string]any{"detail": f.detail})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

type validationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func writeValidation(w http.ResponseWriter, errs []validationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, []validationError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}})
		return
	}
	var errs []validationError
	if len([]rune(in.Username)) < 2 {
		errs = append(errs, validationError{Loc: []string{"body", "username"}, Msg: "String should have at least 2 characters", Type: "string_too_short"})
	}
	if len([]rune(in.Password)) < 8 {
		errs = append(errs, validationError{Loc: []string{"body", "password"}, Msg: "String should have at least 8 characters", Type: "string_too_short"})
	}
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	_, exists := s.users[in.Username]
	s.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	s.AddUser(in.Username, in.Password)

	s.mu.Lock()
	id := s.users[in.Username].id
	s.mu.Unlock()
	now := time.Now().UTC()
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         id,
		"username":   in.Username,
		"created_at": now,
		"updated_at": now,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeValidation(w, []validationError{{Loc: []string{"body"}, Msg: "invalid form", Type: "value_error"}})
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	tok := s.IssueToken(username)
	writeJSON(w, http.StatusOK, map[string]any{
		"Message":      "Successful Authentication!",
		"access_token": tok,
		"token_type":   "bearer",
	})
}

// authUser resolves the bearer token to a user id; it writes the 401 itself on failure.
func (s *Server) authUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return 0, false
	}
	raw := strings.TrimPrefix(h, "Bearer ")
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[claims.Subject]
	if !ok || u.id != claims.UserID {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return 0, false
	}
	return u.id, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Items())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if n := len([]rune(name)); n < 2 || n > 20 {
		writeValidation(w, []validationError{{Loc: []string{"query", "name"}, Msg: "String should have between 2 and 20 characters", Type: "string_length"}})
		return
	}
	out := []model.Item{}
	for _, it := range s.Items() {
		if strings.Contains(it.Name, name) {
			out = append(out, it)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func validateItem(name *string, price *int, nullPrice bool) []validationError {
	var errs []validationError
	if name != nil {
		if n := len([]rune(*name)); n < 2 || n > 20 {
			errs = append(errs, validationError{Loc: []string{"body", "name"}, Msg: "String should have between 2 and 20 characters", Type: "string_length"})
		}
	}
	if nullPrice {
		errs = append(errs, validationError{Loc: []string{"body", "price"}, Msg: "Input should be a valid integer", Type: "int_type"})
	} else if price != nil && *price <= 0 {
		errs = append(errs, validationError{Loc: []string{"body", "price"}, Msg: "Input should be greater than 0", Type: "greater_than"})
	}
	return errs
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authUser(w, r)
	if !ok {
		return
	}
	var in model.NewItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, []validationError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}})
		return
	}
	if errs := validateItem(&in.Name, in.Price, in.Price == nil); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	it := model.Item{
		ID:          s.nextItem,
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Status:      model.ItemStatusOnSale,
		UserID:      owner,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	s.nextItem++
	s.items = append(s.items, storedItem{item: it, owner: owner})
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, it)
}

// findOwned returns the index of item id owned by owner, or -1. Caller holds s.mu.
func (s *Server) findOwned(id, owner int) int {
	for i, st := range s.items {
		if st.item.ID == id && st.owner == owner {
			return i
		}
	}
	return -1
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	idx := s.findOwned(pathID(r), owner)
	var it model.Item
	if idx >= 0 {
		it = s.items[idx].item
	}
	s.mu.Unlock()
	if idx < 0 {
		writeDetail(w, http.StatusNotFound, "Item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authUser(w, r)
	if !ok {
		return
	}
	var in model.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeValidation(w, []validationError{{Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid"}})
		return
	}
	if errs := validateItem(in.Name, in.Price, false); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	s.mu.Lock()
	idx := s.findOwned(pathID(r), owner)
	if idx < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Item not updated")
		return
	}
	it := &s.items[idx].item
	if in.Name != nil {
		it.Name = *in.Name
	}
	if in.Description != nil {
		it.Description = *in.Description
	}
	if in.Price != nil {
		it.Price = *in.Price
	}
	if in.Status != nil {
		it.Status = *in.Status
	}
	now := time.Now().UTC()
	it.UpdatedAt = &now
	out := *it
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.authUser(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	idx := s.findOwned(pathID(r), owner)
	if idx < 0 {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Item not deleted")
		return
	}
	out := s.items[idx].item
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

// Paths returns the distinct "METHOD /path" pairs seen so far, sorted.
func (s *Server) Paths() []string {
	seen := map[string]struct{}{}
	for _, r := range s.Requests() {
		seen[r.Method+" "+r.Path] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
