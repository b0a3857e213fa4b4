package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocrud/container/config"
	"github.com/gocrud/container/di"
	"github.com/gocrud/container/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Mailer struct {
	Host  string
	Port  int
	Steps []string
	Deps  []any
}

func NewMailer(host string, port int) *Mailer {
	return &Mailer{Host: host, Port: port}
}

func (m *Mailer) Use(dep any)      { m.Deps = append(m.Deps, dep) }
func (m *Mailer) Step(name string) { m.Steps = append(m.Steps, name) }
func (m *Mailer) Alpha()           { m.Steps = append(m.Steps, "alpha") }
func (m *Mailer) Beta()            { m.Steps = append(m.Steps, "beta") }

type Counter struct{ n int }

func (c *Counter) Create(*di.Container) (any, error) {
	c.n++
	return c.n, nil
}

func newContainer() *di.Container {
	types := di.NewTypeRegistry()
	types.MustRegister(
		di.NewTypeSpec("Mailer",
			di.NewFunc(NewMailer, di.Required("host"), di.Optional("port", 25)),
			di.MethodByName("Use", di.Required("dep")),
			di.MethodByName("Step", di.Required("name")),
		),
		&di.TypeSpec{Name: "Counter", Zero: di.ZeroOf[Counter]()},
	)
	return di.NewContainer(di.WithTypes(types))
}

func yamlConfig(t *testing.T, content string) config.Configuration {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := yamlConfig(t, `
parameters:
  mailer.host: smtp.local
  mailer.port: "2525"
services:
  mailer:
    class: Mailer
    args:
      host: {ref: mailer.host}
      port: {ref: mailer.port}
    calls:
      - Step: [first]
      - Use: [{ref: this}]
      - Step: {name: second}
  mailer.default:
    class: Mailer
    args: [localhost]
    calls:
      Beta: []
      Alpha: ~
  counter:
    factory: Counter
    shared: false
aliases:
  mail: mailer
`)
	c := newContainer()
	require.NoError(t, loader.Load(cfg, c))

	assert.Equal(t, "smtp.local", di.MustResolve[string](c, "mailer.host"))

	m, err := di.Resolve[*Mailer](c, "mail")
	require.NoError(t, err)
	assert.Equal(t, "smtp.local", m.Host)
	assert.Equal(t, 2525, m.Port)
	assert.Equal(t, []string{"first", "second"}, m.Steps)
	require.Len(t, m.Deps, 1)
	assert.Same(t, c, m.Deps[0])

	d, err := di.Resolve[*Mailer](c, "mailer.default")
	require.NoError(t, err)
	assert.Equal(t, "localhost", d.Host)
	assert.Equal(t, 25, d.Port)
	assert.Equal(t, []string{"alpha", "beta"}, d.Steps)

	shared, ok := c.IsShared("counter")
	require.True(t, ok)
	assert.False(t, shared)

	first, err := c.Get("counter")
	require.NoError(t, err)
	second, err := c.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestLoadEmptyConfig(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().Build()
	require.NoError(t, err)

	c := newContainer()
	require.NoError(t, loader.Load(cfg, c))
	assert.Empty(t, c.IDs())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{
			name: "services not a map",
			data: map[string]any{"services": []any{"x"}},
			want: "services: expected a map",
		},
		{
			name: "service not a map",
			data: map[string]any{"services": map[string]any{"x": "y"}},
			want: `service "x": expected a map`,
		},
		{
			name: "shared not a bool",
			data: map[string]any{"services": map[string]any{"x": map[string]any{"class": "Mailer", "shared": "yes"}}},
			want: "shared must be a bool",
		},
		{
			name: "class not a string",
			data: map[string]any{"services": map[string]any{"x": map[string]any{"class": 1}}},
			want: "class must be a string",
		},
		{
			name: "args scalar",
			data: map[string]any{"services": map[string]any{"x": map[string]any{"class": "Mailer", "args": "a"}}},
			want: "args: expected a list or a map",
		},
		{
			name: "calls item with two methods",
			data: map[string]any{"services": map[string]any{"x": map[string]any{
				"class": "Mailer",
				"calls": []any{map[string]any{"Alpha": nil, "Beta": nil}},
			}}},
			want: "calls: item 0: expected a single-entry map",
		},
		{
			name: "alias to itself",
			data: map[string]any{"aliases": map[string]any{"a": "a"}},
			want: "Alias and service names can not be equals",
		},
		{
			name: "alias target not a string",
			data: map[string]any{"aliases": map[string]any{"a": 1}},
			want: "target must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.NewConfigurationBuilder().AddInMemory(tt.data).Build()
			require.NoError(t, err)

			err = loader.Load(cfg, newContainer())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRespectsImmutability(t *testing.T) {
	c := newContainer()
	require.NoError(t, c.Register("mailer.host", func() any { return "built" }))
	_, err := c.Get("mailer.host")
	require.NoError(t, err)

	cfg, err := config.NewConfigurationBuilder().
		AddInMemory(map[string]any{"parameters": map[string]any{"mailer.host": "other"}}).
		Build()
	require.NoError(t, err)

	err = loader.Load(cfg, c)
	assert.ErrorIs(t, err, di.ErrContainer)
}

func TestParseDefinition(t *testing.T) {
	def, err := loader.ParseDefinition(map[string]any{"class": "Mailer"})
	require.NoError(t, err)
	assert.Equal(t, "Mailer", def.Class)
	assert.Nil(t, def.Args)
	assert.Empty(t, def.Calls)

	def, err = loader.ParseDefinition(map[string]any{"class": "Mailer", "args": nil})
	require.NoError(t, err)
	assert.NotNil(t, def.Args)
	assert.Empty(t, def.Args)

	def, err = loader.ParseDefinition(map[string]any{
		"args":  map[any]any{0: "a", "port": 1},
		"calls": []any{map[string]any{"Step": "not-a-list"}},
	})
	require.NoError(t, err)
	assert.Equal(t, di.Args{"0": "a", "port": 1}, def.Args)
	require.Len(t, def.Calls, 1)
	assert.Equal(t, di.Call{Method: "Step"}, def.Calls[0])

	_, err = loader.ParseDefinition(map[string]any{"args": map[any]any{1.5: "x"}})
	assert.Error(t, err)
}

func TestBindSection(t *testing.T) {
	type SMTP struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	}

	cfg, err := config.NewConfigurationBuilder().
		AddInMemory(map[string]any{"smtp": map[string]any{"host": "smtp.local", "port": 2525}}).
		Build()
	require.NoError(t, err)

	c := newContainer()
	settings, err := loader.BindSection[SMTP](cfg, c, "smtp.settings", "smtp")
	require.NoError(t, err)
	assert.Equal(t, "smtp.local", settings.Host)

	stored, err := di.Resolve[*SMTP](c, "smtp.settings")
	require.NoError(t, err)
	assert.Same(t, settings, stored)

	_, err = loader.BindSection[SMTP](cfg, c, "x", "missing")
	assert.Error(t, err)
}

func TestParametersAreDetachedFromConfig(t *testing.T) {
	cfg := yamlConfig(t, `
parameters:
  mailer.options:
    tags: [smtp]
    retries: 3
`)
	c := newContainer()
	require.NoError(t, loader.Load(cfg, c))

	opts := di.MustResolve[map[string]any](c, "mailer.options")
	opts["retries"] = 10
	opts["tags"].([]any)[0] = "changed"

	// 参数 ID 含 "."，只能从 parameters 节整体取出
	stored := cfg.Raw("parameters").(map[string]any)["mailer.options"].(map[string]any)
	assert.Equal(t, 3, stored["retries"])
	assert.Equal(t, []any{"smtp"}, stored["tags"])
}
