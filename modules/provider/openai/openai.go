// Package openai implements the provider.openai module, the fallback
// summarization backend using the OpenAI Chat Completions API.
package openai

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	sdkopenai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"

	"github.com/wirereport/wirereport/internal/core"
	"github.com/wirereport/wirereport/internal/provider"
)

func init() {
	core.RegisterModule(&OpenAI{})
}

// Interface guards.
var (
	_ core.Module            = (*OpenAI)(nil)
	_ core.Configurable      = (*OpenAI)(nil)
	_ core.Provisioner       = (*OpenAI)(nil)
	_ core.Validator         = (*OpenAI)(nil)
	_ provider.Provider      = (*OpenAI)(nil)
	_ provider.HealthChecker = (*OpenAI)(nil)
)

// OpenAI is the provider.openai module. It implements provider.Provider and
// provider.HealthChecker using the OpenAI Chat Completions API.
type OpenAI struct {
	config Config
	client *sdkopenai.Client
	logger *slog.Logger
}

// ModuleInfo implements core.Module.
func (o *OpenAI) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.openai",
		New: func() core.Module { return &OpenAI{} },
	}
}

// Configure implements core.Configurable.
func (o *OpenAI) Configure(node *yaml.Node) error {
	if err := node.Decode(&o.config); err != nil {
		return err
	}
	o.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (o *OpenAI) Provision(ctx *core.AppContext) error {
	o.logger = ctx.Logger

	apiKey := o.config.APIKey
	if apiKey == "" && o.config.APIKeyEnv != "" {
		apiKey = os.Getenv(o.config.APIKeyEnv)
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	clientCfg := sdkopenai.DefaultConfig(apiKey)
	if o.config.BaseURL != "" {
		clientCfg.BaseURL = o.config.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: o.config.Timeout}
	o.client = sdkopenai.NewClientWithConfig(clientCfg)

	ctx.RegisterService("provider.openai", o)
	return nil
}

// Validate implements core.Validator.
func (o *OpenAI) Validate() error {
	if o.config.Model == "" {
		return errors.New("provider.openai: model must not be empty")
	}
	if o.client == nil {
		return errors.New("provider.openai: client not initialized (Provision not called)")
	}
	return nil
}

// ModelName implements provider.Provider.
func (o *OpenAI) ModelName() string {
	return o.config.Model
}
