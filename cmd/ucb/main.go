package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/usb-cleaner-box/ucb/internal/log"
	"github.com/usb-cleaner-box/ucb/internal/model"
)

const configName = "ucb.yaml"

var (
	userConfigPath string // /default/config/path/ucb on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config
	logCloser      io.Closer
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "ucb")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().String("config", "", "Config file to load - default is "+configName+" in "+userConfigPath+" or in current directory")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	rootCmd.PersistentFlags().String("workers-dir", "", "directory holding the worker scripts")
	for _, name := range []string{"config", "verbose", "workers-dir"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	// UCB_CONFIG, UCB_VERBOSE, UCB_WORKERS_DIR, UCB_LCD_COMMAND_FILE
	viper.SetEnvPrefix("UCB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// never print messages
	rootCmd.SilenceErrors = true

	// parse or create a config, setup logging
	rootCmd.PersistentPreRunE = initUCB
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	}

	workersCmd.Flags().BoolVar(&flagAll, "all", false, "include disabled workers")
	workersCmd.Flags().BoolVar(&flagYAML, "yaml", false, "print workers as YAML")
	lcdCmd.Flags().String("file", "", "LCD command file - default is $UCB_LCD_COMMAND_FILE or lcd.command_file from config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(workersCmd)
	rootCmd.AddCommand(lcdCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("ucb failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "ucb",
	Short:        "USB Cleaner Box kiosk controller",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a ucb",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("ucb: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config: %s\n", configPath)
		}
		fmt.Printf("ucb:    %s\n", info.Main.Version)
		fmt.Printf("go:     %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit: %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:   %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:  %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

func initUCB(cmd *cobra.Command, _ []string) error {
	configPath = viper.GetString("config")
	if configPath == "" {
		for _, d := range []string{userConfigPath, "."} {
			path := filepath.Join(d, configName)
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	if configPath == "" {
		// store default configuration
		config = model.DefaultConfig()
		configPath = filepath.Join(userConfigPath, configName)
		if err := writeConfig(configPath, config); err != nil {
			return err
		}
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		cfg, err := model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid config", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
		config = *cfg
	}

	// flags and UCB_* variables have a precedence over config file
	if viper.GetBool("verbose") {
		config.Service.Verbose = true
	}
	if dir := viper.GetString("workers-dir"); dir != "" {
		config.Workers.Dir = dir
	}

	// initialize logging
	var w io.Writer
	w, logCloser = log.Output(config.Service.Log)
	slog.SetDefault(log.New(w, config.Service.Verbose))

	slog.Debug("ucb "+cmd.Name(), "configPath", configPath)
	slog.Debug("ucb "+cmd.Name(), "config", config)
	return nil
}

func writeConfig(path string, cfg model.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("storing configuration: %w", err)
	}
	return enc.Close()
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
