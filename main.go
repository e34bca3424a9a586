package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mcolombo/buslens/internal/config"
	"github.com/mcolombo/buslens/internal/tui"
	"github.com/mcolombo/buslens/internal/xdg"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "Show version")
	profile := flag.String("profile", "", "Connection profile from config.toml")
	url := flag.String("url", "", "Broker URL (overrides profile and env)")
	exchange := flag.String("exchange", "", "Topic exchange to watch")
	topic := flag.String("topic", "", "Topic binding pattern (default #)")
	protoPath := flag.String("proto", "", "Directory of .proto files for payload decoding")
	flag.Parse()

	if *showVersion {
		fmt.Printf("buslens %s\n", version)
		return
	}

	configDir, err := xdg.Dir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving config directory: %v\n", err)
		os.Exit(1)
	}

	fileCfg, err := config.LoadFileConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cfg := fileCfg.Resolve(*profile, configDir)
	if *url != "" {
		cfg.BrokerURL = *url
	}
	if *exchange != "" {
		cfg.Exchange = *exchange
	}
	if *topic != "" {
		cfg.Topic = *topic
	}
	if *protoPath != "" {
		cfg.ProtoPath = *protoPath
	}

	if err := tui.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
