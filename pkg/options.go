package pkg

import (
	"github.com/spf13/viper"
)

type Options struct {
	// sdcli home folder, holds sdcli_config.yaml, settings.json and logs
	HomePath     string
	SettingsPath string
	// root folder WebUI flavors are installed under
	InstallRoot string
	VenvPath    string
	// detected or forced notebook environment name ("Google Colab", "Kaggle", "local")
	EnvName    string
	Json       bool
	PrettyJson bool
	Yes        bool // Automatically answer yes on prompted questions
	Quiet      bool
	GetVersion bool
	// tokens for gated download hosts
	CivitaiToken     string
	HuggingfaceToken string
	// concurrent workers for batch downloads
	Workers int
}

func (o *Options) ApplyEnvironment() {
	// Check if viper has a value for each setting, if so, use it to set the struct's fields
	if viper.IsSet("settings") {
		o.SettingsPath = viper.GetString("settings")
	}
	if viper.IsSet("root") {
		o.InstallRoot = viper.GetString("root")
	}
	if viper.IsSet("venv") {
		o.VenvPath = viper.GetString("venv")
	}
	if viper.IsSet("env") {
		o.EnvName = viper.GetString("env")
	}
	if viper.IsSet("pretty") {
		o.PrettyJson = viper.GetBool("pretty")
	}
	if viper.IsSet("civitai_token") {
		o.CivitaiToken = viper.GetString("civitai_token")
	}
	if viper.IsSet("huggingface_token") {
		o.HuggingfaceToken = viper.GetString("huggingface_token")
	}
	if viper.IsSet("workers") {
		o.Workers = viper.GetInt("workers")
	}
}
