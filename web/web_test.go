package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/container/di"
	"github.com/gocrud/container/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContainer(t *testing.T) *di.Container {
	t.Helper()
	types := di.NewTypeRegistry()
	require.NoError(t, web.Register(types))

	c := di.NewContainer(di.WithTypes(types))
	require.NoError(t, c.Set("db.dsn", "file::memory:"))
	require.NoError(t, c.Register("clock", func() any { return time.Now() }, di.WithTransient()))
	require.NoError(t, c.SetAlias("now", "clock"))
	return c
}

func get(t *testing.T, handler http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestInspector(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newContainer(t)
	engine := gin.New()
	web.Mount(engine, c)

	handlers := map[string]http.Handler{
		"gin": engine,
		"chi": web.Handler(c),
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			testInspector(t, handler)
		})
	}
}

func testInspector(t *testing.T, handler http.Handler) {
	t.Run("services", func(t *testing.T) {
		var body struct {
			Services []web.ServiceInfo `json:"services"`
		}
		assert.Equal(t, http.StatusOK, get(t, handler, "/services", &body))
		assert.Equal(t, []web.ServiceInfo{
			{ID: "clock", Shared: false},
			{ID: "db.dsn", Shared: true},
		}, body.Services)
	})

	t.Run("service by alias", func(t *testing.T) {
		var info web.ServiceInfo
		assert.Equal(t, http.StatusOK, get(t, handler, "/services/now", &info))
		assert.Equal(t, web.ServiceInfo{ID: "clock", Alias: "now"}, info)
	})

	t.Run("service not found", func(t *testing.T) {
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, get(t, handler, "/services/missing", &body))
		assert.Equal(t, `The service "missing" is not found`, body["error"])
	})

	t.Run("aliases", func(t *testing.T) {
		var body struct {
			Aliases map[string]string `json:"aliases"`
		}
		assert.Equal(t, http.StatusOK, get(t, handler, "/aliases", &body))
		assert.Equal(t, map[string]string{"now": "clock"}, body.Aliases)
	})
}

func TestEngineFromDefinition(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterDefinition("http.engine", &di.Definition{
		Class: web.TypeEngine,
		Args:  di.Args{"mode": gin.TestMode},
		Calls: []di.Call{
			{Method: "MountInspector", Args: di.Args{"container": di.Ref(di.This)}},
		},
	}))

	engine, err := di.Resolve[*gin.Engine](c, "http.engine")
	require.NoError(t, err)

	var info web.ServiceInfo
	assert.Equal(t, http.StatusOK, get(t, engine, "/_di/services/http.engine", &info))
	assert.Equal(t, web.ServiceInfo{ID: "http.engine", Shared: true}, info)
}

func TestUnknownMode(t *testing.T) {
	_, err := web.NewEngine("turbo")
	assert.Error(t, err)
}

func TestHostStartStop(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterDefinition("http.engine", &di.Definition{
		Class: web.TypeEngine,
		Args:  di.Args{"mode": gin.TestMode},
	}))
	require.NoError(t, c.RegisterDefinition("http.host", &di.Definition{
		Class: web.TypeHost,
		Args:  di.Args{"engine": di.Ref("http.engine"), "port": 0},
	}))

	host, err := di.Resolve[*web.Host](c, "http.host")
	require.NoError(t, err)
	host.Engine().GET("/ping", func(ctx *gin.Context) { ctx.String(http.StatusOK, "pong") })

	errCh := make(chan error, 1)
	go func() { errCh <- host.Start(context.Background()) }()

	select {
	case <-host.Ready():
	case err := <-errCh:
		t.Fatalf("host failed to start: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("host did not start")
	}

	_, port, err := net.SplitHostPort(host.Address())
	require.NoError(t, err)
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%s/ping", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, host.Stop(ctx))
	assert.NoError(t, <-errCh)
}

func TestHostRestart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ping", func(ctx *gin.Context) { ctx.String(http.StatusOK, "pong") })
	host := web.NewHost(engine, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 未启动时 Stop 不做任何事
	require.NoError(t, host.Stop(ctx))

	ping := func() bool {
		_, port, err := net.SplitHostPort(host.Address())
		if err != nil {
			return false
		}
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%s/ping", port))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}

	for round := 0; round < 2; round++ {
		errCh := make(chan error, 1)
		go func() { errCh <- host.Start(context.Background()) }()

		assert.Eventually(t, ping, 3*time.Second, 20*time.Millisecond, "round %d", round)

		require.NoError(t, host.Stop(ctx))
		assert.NoError(t, <-errCh)
	}
}

func TestHostRequiresEngine(t *testing.T) {
	c := newContainer(t)
	require.NoError(t, c.RegisterDefinition("http.host", &di.Definition{
		Class: web.TypeHost,
		Args:  di.Args{"engine": nil},
	}))

	_, err := c.Get("http.host")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an engine")
}
