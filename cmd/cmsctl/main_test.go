package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/model"
)

func newTestServer(t *testing.T) (*httptest.Server, func() []model.ReorderRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []model.ReorderRequest
	order := []string{"a", "b", "c"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/api/auth/login":
			_, _ = w.Write([]byte(`{"token":"tok-42"}`))
		case r.Method == http.MethodPatch:
			var req model.ReorderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			got = append(got, req)
			order = order[:0]
			for _, it := range req.Items {
				order = append(order, it.ID)
			}
			_, _ = w.Write([]byte(`{"message":"Items reordered successfully"}`))
		default:
			items := make([]map[string]any, len(order))
			for i, id := range order {
				items[i] = map[string]any{"id": id, "institution": strings.ToUpper(id), "position": i + 1}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"items": items, "meta": map[string]int{"total": len(items)}})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []model.ReorderRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]model.ReorderRequest(nil), got...)
	}
}

func run(t *testing.T, srv *httptest.Server, args ...string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Client.URL = srv.URL
	cfg.Client.Token = "tok"
	cmd := newRootCmd(cfg, io.Discard)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	require.Equal(t, "tok-42\n", run(t, srv, "login", "--email", "admin@example.com", "--password", "pw"))
}

func TestList(t *testing.T) {
	srv, _ := newTestServer(t)
	out := run(t, srv, "list", "education")
	require.Contains(t, out, "3 of 3")
	require.Contains(t, out, "A")
}

// TestMove: education нумеруется с 1, строка c уходит наверх
func TestMove(t *testing.T) {
	srv, got := newTestServer(t)
	out := run(t, srv, "move", "education", "2", "0")
	sent := got()
	require.Len(t, sent, 1)
	require.Equal(t, []model.PositionUpdate{{ID: "c", Position: 1}, {ID: "a", Position: 2}, {ID: "b", Position: 3}}, sent[0].Items)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "c")
}

func TestMove_UnknownCollection(t *testing.T) {
	srv, _ := newTestServer(t)
	cfg := config.Default()
	cfg.Client.URL = srv.URL
	cmd := newRootCmd(cfg, io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"move", "skills", "0", "1"})
	require.Error(t, cmd.Execute())
}
