package web

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
	"github.com/gocrud/container/di"
)

// ServiceInfo 是单个服务的诊断信息
type ServiceInfo struct {
	ID     string `json:"id"`
	Shared bool   `json:"shared"`
	Alias  string `json:"alias,omitempty"`
}

// Services 返回所有服务及其共享标记，不会构建任何服务
func Services(c *di.Container) []ServiceInfo {
	ids := c.IDs()
	services := make([]ServiceInfo, 0, len(ids))
	for _, id := range ids {
		shared, ok := c.IsShared(id)
		if !ok {
			// 列出后被并发移除
			continue
		}
		services = append(services, ServiceInfo{ID: id, Shared: shared})
	}
	return services
}

// Lookup 返回单个服务的诊断信息，id 可以是别名
func Lookup(c *di.Container, id string) (ServiceInfo, error) {
	target := c.ServiceIDFromAlias(id, id)
	shared, ok := c.IsShared(id)
	if !ok {
		return ServiceInfo{}, &di.NotFoundError{ID: target}
	}

	info := ServiceInfo{ID: target, Shared: shared}
	if target != id {
		info.Alias = id
	}
	return info, nil
}

// Mount 在 Gin 路由上挂载只读诊断路由：
//
//	GET /services      所有服务及其共享标记
//	GET /services/:id  单个服务，id 可以是别名
//	GET /aliases       别名表
func Mount(router gin.IRouter, c *di.Container) {
	router.GET("/services", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"services": Services(c)})
	})

	router.GET("/services/:id", func(ctx *gin.Context) {
		info, err := Lookup(c, ctx.Param("id"))
		if err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, info)
	})

	router.GET("/aliases", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"aliases": c.Aliases()})
	})
}

// Handler 返回与 Mount 相同路由的 http.Handler，用于不使用 Gin 的服务
func Handler(c *di.Container) http.Handler {
	r := chi.NewRouter()

	r.Get("/services", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"services": Services(c)})
	})

	r.Get("/services/{id}", func(w http.ResponseWriter, req *http.Request) {
		info, err := Lookup(c, chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	r.Get("/aliases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"aliases": c.Aliases()})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
