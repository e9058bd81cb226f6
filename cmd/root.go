package cmd

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sdcli/sdcli/pkg"
)

//go:embed version.txt
var version string

var CLIOptions = pkg.Options{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sdcli",
	Short: "Install, provision and launch Stable-Diffusion WebUI distributions",
	Run: func(cmd *cobra.Command, args []string) {
		if CLIOptions.GetVersion {
			if CLIOptions.Json {
				versionmap := map[string]string{
					"version": strings.TrimSpace(version),
				}
				json, err := pkg.ToJson(versionmap, CLIOptions.PrettyJson)
				if err != nil {
					slog.Error("Failed to convert version to json:", "error", err)
					os.Exit(1)
				}
				fmt.Println(json)
				return
			}
			fmt.Println(strings.TrimSpace(version))
			return
		}
		if len(args) == 0 {
			if err := cmd.Help(); err != nil {
				slog.Error("Error:", "error", err)
				os.Exit(1)
			}
			return
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// setupSdcliHome tries to determine the sdcli home folder by looking for sdcli_config.yaml
// if createIfNeeded is true, it will create the folder structure in the path it does not exist.
func setupSdcliHome(path string, createIfNeeded bool) (string, error) {
	configpath := filepath.Join(path, "sdcli_config.yaml")
	if _, err := os.Stat(configpath); err == nil {
		return configpath, nil
	}

	if createIfNeeded {
		err := os.MkdirAll(path, os.ModePerm)
		if err != nil {
			return "", err
		}
		// create a default config file
		viper.SafeWriteConfigAs(configpath)
		return configpath, nil
	}

	return "", fmt.Errorf("sdcli home folder not found at %s", path)
}

// checkSdcliHome checks the sdcli home folder structure and creates it if needed
func checkSdcliHome(path string) error {
	/*
		HOME/
		├─ sdcli_config.yaml
		├─ settings.json
		├─ webui/
		├─ venv/
		├─ logs/
	*/
	for _, sub := range []string{"webui", "logs"} {
		folder := filepath.Join(path, sub)
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			fmt.Printf("Creating %s folder: %s\n", sub, folder)
			if err := os.MkdirAll(folder, os.ModePerm); err != nil {
				fmt.Printf("Failed to create %s folder: %s\n", sub, err)
				return err
			}
		}
	}
	return nil
}

// getSdcliHome trys to determine the sdcli home folder
// and creates it if it does not exist.
// The order of where it looks for the file sdcli_config.yaml is:
// 1. The directory specified by the environment variable SDCLI_HOME
// 2. The current working directory
// 3. $HOME/.sdcli
func getSdcliHome() (string, error) {
	var configFilePath string
	var err error

	// an explicit SDCLI_HOME always wins and is created on demand
	homedir := viper.GetString("HOME")
	if homedir != "" {
		configFilePath, err = setupSdcliHome(homedir, true)
		if err == nil && configFilePath != "" {
			if err := checkSdcliHome(homedir); err != nil {
				return "", err
			}
			return configFilePath, nil
		}
	}

	// check the current directory
	currentdir, _ := os.Getwd()
	configFilePath, err = setupSdcliHome(currentdir, false)
	if err == nil && configFilePath != "" {
		if err := checkSdcliHome(currentdir); err != nil {
			return "", err
		}
		return configFilePath, nil
	}

	// last but not least, check the user's home directory
	userhomedir, _ := os.UserHomeDir()
	userhomedir = filepath.Join(userhomedir, ".sdcli")
	configFilePath, err = setupSdcliHome(userhomedir, true)
	if err == nil && configFilePath != "" {
		if err := checkSdcliHome(userhomedir); err != nil {
			return "", err
		}
		return configFilePath, nil
	}

	return "", errors.New("sdcli home folder not found")
}

func getLongDescription() string {
	return fmt.Sprintf(`A command-line application for provisioning Stable-Diffusion WebUI
distributions on notebook hosts and local machines: virtual environment
setup, WebUI checkout, model/extension downloads and launch.

Version: %s
Home Path: %s`, strings.TrimSpace(version), CLIOptions.HomePath)
}

func init() {
	viper.SetEnvPrefix("SDCLI") // Set the prefix for environment variables.
	viper.AutomaticEnv()        // Read in environment variables that match.

	// Determine the default work folder and check for an override from environment variables.
	defaultWorkFolder := filepath.Join(os.Getenv("HOME"), ".sdcli")
	workFolder := viper.GetString("HOME") // Looking for SDCLI_HOME
	if workFolder == "" {
		workFolder = defaultWorkFolder
	}

	// Check if the work folder exists, create it if it does not.
	if _, err := os.Stat(workFolder); os.IsNotExist(err) {
		fmt.Printf("Creating sdcli home folder: %s\n", workFolder)
		err := os.MkdirAll(workFolder, os.ModePerm)
		if err != nil {
			fmt.Printf("Failed to create sdcli home folder: %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetConfigName("sdcli_config")
	viper.SetConfigType("yaml")

	// Try to read the config or create it if it doesn't exist.
	configpath, err := getSdcliHome()
	if err != nil {
		slog.Error("Failed to get sdcli home folder", "error", err)
		os.Exit(1)
	}
	viper.SetConfigFile(configpath)
	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Failed to create sdcli config file", "error", err)
		os.Exit(1)
	}

	CLIOptions.HomePath = filepath.Dir(configpath)
	CLIOptions.SettingsPath = filepath.Join(CLIOptions.HomePath, "settings.json")
	CLIOptions.InstallRoot = filepath.Join(CLIOptions.HomePath, "webui")
	CLIOptions.VenvPath = filepath.Join(CLIOptions.HomePath, "venv")
	CLIOptions.PrettyJson = true

	rootCmd.PersistentFlags().StringVarP(&CLIOptions.InstallRoot, "root", "", CLIOptions.InstallRoot, "Folder WebUI flavors are installed under")
	rootCmd.PersistentFlags().StringVarP(&CLIOptions.VenvPath, "venv", "", CLIOptions.VenvPath, "Path of the managed python virtual environment")
	rootCmd.PersistentFlags().BoolVarP(&CLIOptions.Json, "json", "j", false, "Report all output as json")
	rootCmd.PersistentFlags().BoolVarP(&CLIOptions.Yes, "yes", "y", false, "Automatically answer yes on prompted questions")
	rootCmd.PersistentFlags().BoolVarP(&CLIOptions.Quiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&CLIOptions.GetVersion, "version", "v", false, "Print the version of sdcli")

	// Set the Long field of rootCmd after CLIOptions.HomePath is populated
	rootCmd.Long = getLongDescription()

	// use viper to bind flags to config
	// this allows for automatically binding environment variables to registered parameters:
	// export SDCLI_ROOT=/content/webui
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("venv", rootCmd.PersistentFlags().Lookup("venv"))
}
