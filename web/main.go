package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/df07/go-raymarcher/pkg/raymarch"
	"github.com/df07/go-raymarcher/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	configPath := flag.String("config", "", "YAML raymarch config used as the default for requests")
	flag.Parse()
	defer glog.Flush()

	config, err := raymarch.LoadConfig(*configPath)
	if err != nil {
		glog.Errorf("Error loading config: %v", err)
		glog.Flush()
		os.Exit(1)
	}

	// Create and start web server
	webServer := server.NewServer(*port, config)

	glog.Infof("Raymarcher Web Server")
	glog.Infof("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		glog.Errorf("Error starting server: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
