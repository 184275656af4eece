package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"gnosis/internal/config"
	"gnosis/internal/server"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

func main() {
	versionFlag := flag.Bool("version", false, "Print the version of the program")
	logfileFlag := flag.String("logfile", "", "Path to log file")
	configFlag := flag.String("config", "", "Path to a YAML or JSON config file")
	verboseFlag := flag.Int("verbose", 1, "Log verbosity (0 quiet, higher is more)")
	flag.Parse()

	// Version tag
	if *versionFlag {
		fmt.Printf("gnosis LSP server version %s\n", Version)
		return
	}

	// 4 Cores
	runtime.GOMAXPROCS(4)

	// Logging
	if *logfileFlag != "" {
		logFile, err := os.OpenFile(*logfileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()
		log.SetOutput(logFile)
		log.SetFlags(log.Ldate | log.Ltime | log.Llongfile)
		log.Println("Starting gnosis LSP server...")
		commonlog.Configure(*verboseFlag, logfileFlag)
	} else {
		log.SetOutput(io.Discard)
		commonlog.Configure(*verboseFlag, nil)
	}

	// Config file, overridden by the client's initialization options
	cfg := config.Default()
	if *configFlag != "" {
		var err error
		cfg, err = config.LoadFile(*configFlag)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Initialize the server
	server, err := server.NewServer(cfg, Version)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Run the server
	if err := server.RunStdio(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
