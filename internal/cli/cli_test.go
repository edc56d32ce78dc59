package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dkjgA893274/fastapi-freamarket/internal/apitest"
	"github.com/dkjgA893274/fastapi-freamarket/internal/client"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, args, "")
}

func runCLIWithInput(t *testing.T, args []string, stdin string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// setupBackend isolates the config dir and points the CLI at a fresh fake backend.
// Tests using it cannot run in parallel (t.Setenv).
func setupBackend(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.New(t)
	t.Setenv("FREAMARKET_CONFIG_DIR", t.TempDir())
	t.Setenv("FREAMARKET_SERVER", srv.URL)
	t.Setenv("FREAMARKET_FORMAT", "")
	t.Setenv("FREAMARKET_PASSWORD", "")
	t.Setenv("FREAMARKET_DEBUG_LOG", "")
	return srv
}

func decodeEnvelope(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("decode output: %v\n%s", err, string(b))
	}
	return env
}

func login(t *testing.T, srv *apitest.Server) {
	t.Helper()
	srv.AddUser("alice", "pw")
	if _, stderr, err := runCLI(t, []string{"login", "alice", "--password", "pw"}); err != nil {
		t.Fatalf("login: %v\n%s", err, string(stderr))
	}
}

func TestLogin_PersistsSessionForWhoami(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")

	out, stderr, err := runCLI(t, []string{"login", "alice", "--password", "pw"})
	if err != nil {
		t.Fatalf("login: %v\n%s", err, string(stderr))
	}
	env := decodeEnvelope(t, out)
	data := env["data"].(map[string]any)
	if data["username"] != "alice" || data["loggedIn"] != true {
		t.Fatalf("unexpected login data: %#v", data)
	}
	if !strings.Contains(string(stderr), client.MsgLoginOK) {
		t.Fatalf("expected success notification on stderr, got %q", string(stderr))
	}

	out, _, err = runCLI(t, []string{"whoami", "--format", "text"})
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "alice @ "+srv.URL {
		t.Fatalf("whoami = %q", got)
	}
}

func TestLogin_RejectedIsReportedOnce(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")

	out, stderr, err := runCLI(t, []string{"login", "alice", "--password", "nope"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsReported(err) {
		t.Fatalf("expected reported error, got %T", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no stdout, got %q", string(out))
	}
	if n := strings.Count(string(stderr), client.MsgLoginFailed); n != 1 {
		t.Fatalf("expected exactly one failure line, got %d in %q", n, string(stderr))
	}
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")

	if _, stderr, err := runCLIWithInput(t, []string{"login", "alice"}, "pw\n"); err != nil {
		t.Fatalf("login: %v\n%s", err, string(stderr))
	}
}

func TestWhoami_NotLoggedIn(t *testing.T) {
	srv := setupBackend(t)

	_, stderr, err := runCLI(t, []string{"whoami"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), "not logged in to "+srv.URL) {
		t.Fatalf("unexpected stderr: %q", string(stderr))
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)

	if _, _, err := runCLI(t, []string{"logout"}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := runCLI(t, []string{"whoami"}); err == nil {
		t.Fatalf("expected whoami to fail after logout")
	}
}

func TestSignup_DoesNotLogIn(t *testing.T) {
	srv := setupBackend(t)

	out, _, err := runCLI(t, []string{"signup", "bob", "--password", "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	env := decodeEnvelope(t, out)
	hints, _ := env["_hints"].([]any)
	if len(hints) != 1 || hints[0] != "freamarket login bob" {
		t.Fatalf("unexpected hints: %#v", env["_hints"])
	}
	if srv.Count("POST", "/auth/login") != 0 {
		t.Fatalf("signup must not log in")
	}
	if _, _, err := runCLI(t, []string{"whoami"}); err == nil {
		t.Fatalf("expected no session after signup")
	}
}

func TestItemsAdd_ThenListAsText(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)

	out, stderr, err := runCLI(t, []string{"items", "add", "--name", "Pen", "--description", "Blue ink", "--price", "150"})
	if err != nil {
		t.Fatalf("add: %v\n%s", err, string(stderr))
	}
	env := decodeEnvelope(t, out)
	items, _ := env["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected refreshed list with 1 item, got %#v", env["data"])
	}
	if !strings.Contains(string(stderr), client.MsgAddOK) {
		t.Fatalf("expected add notification, got %q", string(stderr))
	}

	out, _, err = runCLI(t, []string{"items", "list", "--format", "text"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := string(out)
	if !strings.Contains(got, "#1  Pen  ¥150") || !strings.Contains(got, "    Blue ink") {
		t.Fatalf("unexpected text output:\n%s", got)
	}
}

func TestItemsAdd_ReloadFailureIsReported(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	srv.FailNext("GET", "/items", 500, "boom")

	out, stderr, err := runCLI(t, []string{"items", "add", "--name", "Pen", "--description", "Blue ink", "--price", "150"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsReported(err) {
		t.Fatalf("expected reported error, got %T", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no stdout, got %q", string(out))
	}
	if !strings.Contains(string(stderr), client.MsgAddOK) || !strings.Contains(string(stderr), client.MsgListFailed) {
		t.Fatalf("expected add and list notifications, got %q", string(stderr))
	}
	if len(srv.Items()) != 1 {
		t.Fatalf("the item should still have been created")
	}
}

func TestItemsUpdate_ReloadFailureIsReported(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})
	srv.FailNext("GET", "/items", 500, "boom")

	out, _, err := runCLI(t, []string{"items", "update", "1", "--price", "20"})
	if err == nil || !IsReported(err) {
		t.Fatalf("expected reported error, got %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no stdout, got %q", string(out))
	}
	if got := srv.Items()[0].Price; got != 20 {
		t.Fatalf("price = %d", got)
	}
}

func TestItemsList_EmptyShowsPlaceholder(t *testing.T) {
	setupBackend(t)

	out, _, err := runCLI(t, []string{"items", "list", "--format", "text"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(string(out), "商品がありません") {
		t.Fatalf("expected placeholder, got %q", string(out))
	}
}

func TestItemsList_HTMLEscapesFields(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")
	srv.AddItem("alice", model.Item{Name: "<b>Pen</b>", Description: "a & b", Price: 10})

	out, _, err := runCLI(t, []string{"items", "list", "--html"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := string(out)
	if strings.Contains(got, "<b>Pen</b>") {
		t.Fatalf("name was not escaped:\n%s", got)
	}
	if !strings.Contains(got, "&lt;b&gt;Pen&lt;/b&gt;") || !strings.Contains(got, "a &amp; b") {
		t.Fatalf("unexpected html:\n%s", got)
	}
}

func TestItemsShow_DirectAndAlias(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	it := srv.AddItem("alice", model.Item{Name: "Cup", Description: "Tea", Price: 300})

	for _, verb := range []string{"show", "get"} {
		out, stderr, err := runCLI(t, []string{"items", verb, "1"})
		if err != nil {
			t.Fatalf("%s: %v\n%s", verb, err, string(stderr))
		}
		env := decodeEnvelope(t, out)
		data := env["data"].(map[string]any)
		if data["name"] != it.Name {
			t.Fatalf("%s: unexpected data %#v", verb, data)
		}
	}
}

func TestItemsShow_InvalidID(t *testing.T) {
	setupBackend(t)

	_, stderr, err := runCLI(t, []string{"items", "show", "abc"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), `invalid item id: "abc"`) {
		t.Fatalf("unexpected stderr: %q", string(stderr))
	}
}

func TestItemsSearch(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})
	srv.AddItem("alice", model.Item{Name: "Cup", Price: 20})

	out, _, err := runCLI(t, []string{"items", "search", "Cu"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	items := decodeEnvelope(t, out)["data"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["name"] != "Cup" {
		t.Fatalf("unexpected search result: %#v", items)
	}
}

func TestItemsUpdate_Status(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})

	if _, stderr, err := runCLI(t, []string{"items", "update", "1", "--status", "sold-out"}); err != nil {
		t.Fatalf("update: %v\n%s", err, string(stderr))
	}
	if got := srv.Items()[0].Status; got != model.ItemStatusSoldOut {
		t.Fatalf("status = %q", got)
	}
}

func TestItemsUpdate_RejectsBadInput(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)

	cases := []struct {
		args []string
		want string
	}{
		{[]string{"items", "update", "1"}, "nothing to update"},
		{[]string{"items", "update", "1", "--price", "abc"}, `invalid price: "abc"`},
		{[]string{"items", "update", "1", "--status", "gone"}, `invalid status: "gone"`},
	}
	for _, tc := range cases {
		_, stderr, err := runCLI(t, tc.args)
		if err == nil {
			t.Fatalf("%v: expected error", tc.args)
		}
		if !strings.Contains(string(stderr), tc.want) {
			t.Fatalf("%v: stderr %q does not contain %q", tc.args, string(stderr), tc.want)
		}
	}
	if n := srv.Count("PUT", "/items/1"); n != 0 {
		t.Fatalf("expected no PUT, got %d", n)
	}
}

func TestItemsDelete_DeclinedSendsNothing(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})

	out, stderr, err := runCLIWithInput(t, []string{"items", "delete", "1"}, "n\n")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(string(stderr), client.MsgDeleteConfirm) {
		t.Fatalf("expected confirmation prompt, got %q", string(stderr))
	}
	if srv.Count("DELETE", "/items/1") != 0 {
		t.Fatalf("declined delete must not send a request")
	}
	if decodeEnvelope(t, out)["data"].(map[string]any)["deleted"] != false {
		t.Fatalf("unexpected output: %s", string(out))
	}
}

func TestItemsDelete_Confirmed(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})

	if _, _, err := runCLIWithInput(t, []string{"items", "delete", "1"}, "y\n"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(srv.Items()) != 0 {
		t.Fatalf("expected item to be deleted")
	}
}

func TestItemsDelete_YesSkipsPrompt(t *testing.T) {
	srv := setupBackend(t)
	login(t, srv)
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})

	_, stderr, err := runCLI(t, []string{"items", "delete", "1", "--yes"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if strings.Contains(string(stderr), "[y/N]") {
		t.Fatalf("--yes must not prompt: %q", string(stderr))
	}
	if len(srv.Items()) != 0 {
		t.Fatalf("expected item to be deleted")
	}
}

func TestItems_EDNOutput(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")
	srv.AddItem("alice", model.Item{Name: "Pen", Price: 10})

	out, _, err := runCLI(t, []string{"items", "list", "--format", "edn"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(string(out), "{:data [{") || !strings.Contains(string(out), `:name "Pen"`) || !strings.Contains(string(out), ":status :on-sale") {
		t.Fatalf("unexpected edn: %s", string(out))
	}
}

func TestInvalidFormat(t *testing.T) {
	setupBackend(t)

	_, stderr, err := runCLI(t, []string{"items", "list", "--format", "yaml"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(string(stderr), `invalid format: "yaml"`) {
		t.Fatalf("unexpected stderr: %q", string(stderr))
	}
}

func TestConfigSetServer_UsedByLaterCommands(t *testing.T) {
	srv := setupBackend(t)
	t.Setenv("FREAMARKET_SERVER", "")

	if _, _, err := runCLI(t, []string{"config", "set-server", srv.URL + "/"}); err != nil {
		t.Fatalf("set-server: %v", err)
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server != srv.URL {
		t.Fatalf("server = %q, want %q", cfg.Server, srv.URL)
	}

	out, _, err := runCLI(t, []string{"config", "show"})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	data := decodeEnvelope(t, out)["data"].(map[string]any)
	if data["server"] != srv.URL {
		t.Fatalf("unexpected config: %#v", data)
	}

	if _, _, err := runCLI(t, []string{"items", "list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if srv.Count("GET", "/items") != 1 {
		t.Fatalf("expected list to hit the configured server")
	}
}

func TestConfigSetServer_RejectsBadURL(t *testing.T) {
	setupBackend(t)

	if _, _, err := runCLI(t, []string{"config", "set-server", "ftp://example.com"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConfigSet_Preferences(t *testing.T) {
	setupBackend(t)

	for _, args := range [][]string{
		{"config", "set", "timeout", "5"},
		{"config", "set", "tui.theme", "dark"},
		{"config", "set", "tui.markdown", "false"},
	} {
		if _, stderr, err := runCLI(t, args); err != nil {
			t.Fatalf("%v: %v\n%s", args, err, string(stderr))
		}
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TimeoutSeconds != 5 || cfg.TUI == nil || cfg.TUI.Theme != "dark" || cfg.TUI.Markdown == nil || *cfg.TUI.Markdown {
		t.Fatalf("unexpected config: %#v", cfg)
	}

	if _, _, err := runCLI(t, []string{"config", "set", "colour", "red"}); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestItemsList_HTMLMarkdownDescriptions(t *testing.T) {
	srv := setupBackend(t)
	srv.AddUser("alice", "pw")
	srv.AddItem("alice", model.Item{Name: "Pen", Description: "**new** :tada:", Price: 10})

	out, _, err := runCLI(t, []string{"items", "list", "--html", "--markdown"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(string(out), "<strong>new</strong>") {
		t.Fatalf("expected markdown html:\n%s", string(out))
	}
}

func TestDocs(t *testing.T) {
	setupBackend(t)

	out, _, err := runCLI(t, []string{"docs"})
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	topics := decodeEnvelope(t, out)["data"].(map[string]any)["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("expected topics")
	}

	out, _, err = runCLI(t, []string{"docs", "session", "--raw"})
	if err != nil {
		t.Fatalf("docs session: %v", err)
	}
	if !strings.HasPrefix(string(out), "# Sessions") {
		t.Fatalf("unexpected raw docs: %q", string(out))
	}

	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}
