package cmd

import (
	"fmt"
	"log"
	"soundbite/client"
)

// ClientOptions collects the resolved client configuration.
type ClientOptions struct {
	Host string
	Port int

	List   bool
	Get    string // filename to excerpt
	Start  float64
	End    float64
	Output string // local path for the excerpt, defaults to segment_<file>
}

// RunClient connects to the server and performs a single LIST or GET.
func RunClient(opts ClientOptions) {
	c, err := client.Dial(opts.Host, opts.Port)
	if err != nil {
		log.Fatalf("Error: %s", err)
	}
	defer c.Close()

	switch {
	case opts.List:
		entries, err := c.List()
		if err != nil {
			log.Fatalf("Cannot list audio files: %s", err)
		}
		fmt.Printf("Available audio files (%d):\n", len(entries))
		for _, e := range entries {
			fmt.Printf("- %s | duration: %.2f s | format: %s\n", e.Filename, e.DurationSec, e.Format)
		}

	case opts.Get != "":
		out := opts.Output
		if out == "" {
			out = "segment_" + opts.Get
		}
		if err := c.Fetch(opts.Get, opts.Start, opts.End, out); err != nil {
			log.Fatalf("Cannot fetch excerpt %s: %s", opts.Get, err)
		}
		fmt.Printf("Excerpt saved as '%s'\n", out)

	default:
		log.Fatalf("Client mode needs either -list or -get")
	}
}
