//go:build ignore
// +build ignore

// burn 把一组指针手势烧录进 PDF 首页。
//
//	go run cmd/burn.go -in doc.pdf -shapes gestures.json -zoom 1.5 -out out.pdf -preview overlay.png -dump
//
// gestures.json 为画布像素坐标下的手势列表：
//
//	[{"tool":"rectangle","from":[100,100],"to":[200,150]}]
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/novvoo/go-pdf-annotate/pkg/annotate"
)

type gesture struct {
	Tool annotate.ToolKind `json:"tool"`
	From [2]float64        `json:"from"`
	To   [2]float64        `json:"to"`
}

func main() {
	in := flag.String("in", "", "input PDF")
	shapesPath := flag.String("shapes", "", "gesture list (JSON)")
	zoom := flag.Float64("zoom", 1, "viewer zoom the gestures were recorded at")
	scale := flag.String("scale", "native", "write scale: native or zoom")
	out := flag.String("out", annotate.OutputName, "output PDF")
	preview := flag.String("preview", "", "write the overlay as PNG")
	dump := flag.Bool("dump", false, "print the burned content stream operators")
	logLevel := flag.String("log-level", "warn", "debug, info, warn, error or none")
	flag.Parse()

	model.ConfigPath = "disable"

	if *in == "" || *shapesPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	level, err := annotate.ParseLogLevel(*logLevel)
	if err != nil {
		fatal(err)
	}
	annotate.SetLogLevel(level)

	data, err := os.ReadFile(*in)
	if err != nil {
		fatal(err)
	}
	gestures, err := readGestures(*shapesPath)
	if err != nil {
		fatal(err)
	}

	ctrl := annotate.NewController(nil)
	info, err := ctrl.LoadDocument(data, "")
	if err != nil {
		fatal(err)
	}
	fmt.Printf("📄 %s: %d pages, first page %.0fx%.0f pt\n", *in, info.PageCount, info.PageWidth, info.PageHeight)

	ctrl.OnZoomChange(*zoom)
	for _, g := range gestures {
		ctrl.SelectTool(g.Tool)
		ctrl.PointerDown(annotate.Point{X: g.From[0], Y: g.From[1]})
		if _, ok := ctrl.PointerUp(annotate.Point{X: g.To[0], Y: g.To[1]}); !ok {
			fmt.Printf("⚠️  skipped %s gesture\n", g.Tool)
		}
	}

	opts := annotate.WriterOptions{Zoom: *zoom}
	switch *scale {
	case "native":
	case "zoom":
		opts.ScalePolicy = annotate.ScaleCurrentZoom
	default:
		fatal(fmt.Errorf("unknown scale policy: %q", *scale))
	}

	res, err := annotate.NewAnnotationWriter(nil).Write(data, ctrl.Shapes(), opts)
	if err != nil {
		fatal(err)
	}
	if err := os.WriteFile(*out, res.Data, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("✅ %d shapes burned into %s (%d bytes)\n", len(res.PageShapes), *out, len(res.Data))

	if *dump {
		ops, err := annotate.ParseContentStream(res.Content)
		if err != nil {
			fatal(err)
		}
		for i, op := range ops {
			fmt.Printf("  [%d] %s\n", i+1, op)
		}
	}

	if *preview != "" {
		vp := ctrl.Viewport()
		w, h := vp.CanvasSize()
		var buf bytes.Buffer
		err := annotate.WriteOverlayPNG(&buf, ctrl.Overlay(), int(math.Ceil(w)), int(math.Ceil(h)),
			&annotate.RasterOptions{Background: &annotate.RGB{R: 1, G: 1, B: 1}})
		if err != nil {
			fatal(err)
		}
		if err := os.WriteFile(*preview, buf.Bytes(), 0o644); err != nil {
			fatal(err)
		}
		fmt.Printf("🖼  overlay preview: %s\n", *preview)
	}
}

func readGestures(path string) ([]gesture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gestures []gesture
	if err := json.Unmarshal(raw, &gestures); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return gestures, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	os.Exit(1)
}
