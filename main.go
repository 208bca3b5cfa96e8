package main

import (
	"flag"
	"log"
	"soundbite/cmd"
	"soundbite/config"
)

func main() {
	var (
		serverMode  bool
		clientMode  bool
		bind        string
		port        int
		audioDir    string
		adminPort   int
		legacyPlain bool

		host   string
		list   bool
		get    string
		start  float64
		end    float64
		output string
	)

	flag.BoolVar(&serverMode, "server", false, "Start in server mode")
	flag.BoolVar(&clientMode, "client", false, "Start in client mode")
	flag.StringVar(&bind, "bind", config.GetBindAddress(), "Address the server listens on")
	flag.IntVar(&port, "port", config.GetPort(), "TCP command port")
	flag.StringVar(&audioDir, "audio-dir", config.GetAudioDir(), "Directory scanned for audio files")
	flag.IntVar(&adminPort, "admin-port", config.GetAdminPort(), "HTTP admin port, 0 disables the admin surface")
	flag.BoolVar(&legacyPlain, "legacy-plain", config.LegacyPlainReplies(), "Send LIST and generic errors unframed (original protocol)")

	flag.StringVar(&host, "host", config.GetServerHost(), "Server host for client mode")
	flag.BoolVar(&list, "list", false, "List available audio files")
	flag.StringVar(&get, "get", "", "Filename to request an excerpt of")
	flag.Float64Var(&start, "start", 0, "Excerpt start in seconds")
	flag.Float64Var(&end, "end", 0, "Excerpt end in seconds")
	flag.StringVar(&output, "o", "", "Output path for the excerpt")
	flag.Parse()

	if serverMode && clientMode {
		log.Fatalf("You can run only one of `server` and `client` at a time.")
	}

	switch {
	case serverMode:
		cmd.StartServer(cmd.ServerOptions{
			BindAddress: bind,
			Port:        port,
			AudioDir:    audioDir,
			AdminPort:   adminPort,
			LegacyPlain: legacyPlain,
		})

	case clientMode:
		cmd.RunClient(cmd.ClientOptions{
			Host:   host,
			Port:   port,
			List:   list,
			Get:    get,
			Start:  start,
			End:    end,
			Output: output,
		})

	default:
		flag.Usage()
	}
}
