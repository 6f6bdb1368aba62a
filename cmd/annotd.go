//go:build ignore
// +build ignore

// annotd 注释服务：每个 WebSocket 连接对应一个查看器会话。
//
//	go run cmd/annotd.go -addr :8765 -advertise
//	go run cmd/annotd.go -discover
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/novvoo/go-pdf-annotate/pkg/annotate"
	"github.com/novvoo/go-pdf-annotate/pkg/server"
)

func main() {
	cfg := server.DefaultConfig()
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.Path, "path", cfg.Path, "websocket path")
	flag.BoolVar(&cfg.Advertise, "advertise", false, "advertise the service over mDNS")
	flag.StringVar(&cfg.ServiceName, "name", "", "mDNS instance name (default: hostname)")
	flag.Int64Var(&cfg.MaxDocumentBytes, "max-document", cfg.MaxDocumentBytes, "maximum document size in bytes")
	flag.DurationVar(&cfg.ReadTimeout, "idle-timeout", cfg.ReadTimeout, "close idle connections after this long")
	savePolicy := flag.String("save-policy", "accumulate", "accumulate or clear-after")
	scalePolicy := flag.String("scale", "native", "write scale: native or zoom")
	strict := flag.Bool("strict", false, "strict PDF validation")
	logLevel := flag.String("log-level", "info", "debug, info, warn, error or none")
	discover := flag.Duration("discover", 0, "list daemons on the LAN for this long and exit")
	flag.Parse()

	model.ConfigPath = "disable"

	level, err := annotate.ParseLogLevel(*logLevel)
	if err != nil {
		fatal(err)
	}
	annotate.SetLogLevel(level)

	if *discover > 0 {
		peers, err := server.Discover(*discover)
		if err != nil {
			fatal(err)
		}
		for _, p := range peers {
			fmt.Printf("%s\t%s\t%v\n", p.Name, p.Addr, p.Info)
		}
		return
	}

	switch *savePolicy {
	case "accumulate":
		cfg.Controller.SavePolicy = annotate.SaveAccumulate
	case "clear-after":
		cfg.Controller.SavePolicy = annotate.SaveClearAfter
	default:
		fatal(fmt.Errorf("unknown save policy: %q", *savePolicy))
	}
	switch *scalePolicy {
	case "native":
		cfg.Controller.ScalePolicy = annotate.ScaleNative
	case "zoom":
		cfg.Controller.ScalePolicy = annotate.ScaleCurrentZoom
	default:
		fatal(fmt.Errorf("unknown scale policy: %q", *scalePolicy))
	}
	cfg.Controller.Loader = &annotate.PDFLoader{Strict: *strict}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, nil)
	start := time.Now()
	if err := srv.ListenAndServe(ctx); err != nil {
		fatal(err)
	}
	annotate.Info("stopped after %s", time.Since(start).Round(time.Second))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "annotd: %v\n", err)
	os.Exit(1)
}
