package test

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/novvoo/go-pdf-annotate/pkg/annotate"
)

var approx = cmpopts.EquateApprox(0, 1e-3)

func TestBurnLetterRectangle(t *testing.T) {
	h := NewTestHelper(t)
	src := h.Letter()
	orig := append([]byte(nil), src...)

	shapes := []annotate.Shape{{
		ID:     "r1",
		Tool:   annotate.ToolRectangle,
		Origin: annotate.Point{X: 100, Y: 100},
		Extent: annotate.Size{Width: 100, Height: 50},
	}}
	res, err := annotate.NewAnnotationWriter(nil).Write(src, shapes, annotate.WriterOptions{})
	h.AssertNoError(err, "write")

	h.AssertTrue(bytes.Equal(src, orig), "input document unchanged")
	h.AssertTrue(!bytes.Equal(res.Data, src), "output differs from input")
	h.AssertTrue(bytes.HasPrefix(res.Data, []byte("%PDF-")), "output is a PDF")

	doc := h.Reload(res.Data)
	h.AssertEqual(doc.PageCount(), 1, "page count")
	geom, err := doc.PageGeometry(1)
	h.AssertNoError(err, "page geometry")
	w, ht := geom.DisplaySize()
	h.AssertEqual(w, 612.0, "page width")
	h.AssertEqual(ht, 792.0, "page height")

	streams := h.PageOps(doc, 1)
	if len(streams) != 3 {
		t.Fatalf("page 1 has %d content streams, want 3", len(streams))
	}
	if len(streams[0]) != 1 || streams[0][0].Operator != "q" {
		t.Errorf("first stream = %v, want a lone q", streams[0])
	}

	burned := streams[2]
	if burned[0].Operator != "Q" {
		t.Errorf("burned stream starts with %v, want Q", burned[0])
	}
	re := opsNamed(burned, "re")
	if len(re) != 1 {
		t.Fatalf("got %d rectangles, want 1", len(re))
	}
	got, err := re[0].Floats()
	h.AssertNoError(err, "rectangle operands")
	if diff := cmp.Diff([]float64{100, 642, 100, 50}, got, approx); diff != "" {
		t.Errorf("rectangle mismatch (-want +got):\n%s", diff)
	}

	rg := opsNamed(burned, "rg")
	if len(rg) != 1 {
		t.Fatalf("got %d fill colors, want 1", len(rg))
	}
	color, _ := rg[0].Floats()
	if diff := cmp.Diff([]float64{0, 0, 1}, color); diff != "" {
		t.Errorf("rectangle fill (-want +got):\n%s", diff)
	}
}

func TestBurnA4AllTools(t *testing.T) {
	h := NewTestHelper(t)
	src, err := h.fixtures.A4()
	h.AssertNoError(err, "generate A4 fixture")

	shapes := []annotate.Shape{
		{ID: "c", Tool: annotate.ToolCircle, Origin: annotate.Point{X: 200, Y: 200}, Extent: annotate.Size{Width: -60, Height: -40}},
		{ID: "r", Tool: annotate.ToolRectangle, Origin: annotate.Point{X: 50, Y: 50}, Extent: annotate.Size{Width: 30, Height: 20}},
		{ID: "l", Tool: annotate.ToolLine, Origin: annotate.Point{X: 10, Y: 10}, Extent: annotate.Size{Width: 90, Height: 0}},
	}
	res, err := annotate.NewAnnotationWriter(nil).Write(src, shapes, annotate.WriterOptions{})
	h.AssertNoError(err, "write")

	doc := h.Reload(res.Data)
	geom, err := doc.PageGeometry(1)
	h.AssertNoError(err, "page geometry")
	_, pageHeight := geom.DisplaySize()
	h.AssertTrue(math.Abs(pageHeight-841.89) < 0.01, "A4 page height")

	streams := h.PageOps(doc, 1)
	burned := streams[len(streams)-1]

	// 圆：包围盒 (140,160)-(200,200)，中心 (170,180)，半径取长边的一半
	moves := opsNamed(burned, "m")
	if len(moves) != 2 {
		t.Fatalf("got %d moveto, want 2 (ellipse and line)", len(moves))
	}
	start, _ := moves[0].Floats()
	wantCY := pageHeight - 180
	if diff := cmp.Diff([]float64{170 - 30, wantCY}, start, approx); diff != "" {
		t.Errorf("ellipse start (-want +got):\n%s", diff)
	}
	h.AssertEqual(len(opsNamed(burned, "c")), 4, "bezier segments")

	re, _ := opsNamed(burned, "re")[0].Floats()
	if diff := cmp.Diff([]float64{50, pageHeight - 70, 30, 20}, re, approx); diff != "" {
		t.Errorf("rectangle (-want +got):\n%s", diff)
	}

	line, _ := moves[1].Floats()
	to, _ := opsNamed(burned, "l")[0].Floats()
	if diff := cmp.Diff([]float64{10, pageHeight - 10, 100, pageHeight - 10}, append(line, to...), approx); diff != "" {
		t.Errorf("line (-want +got):\n%s", diff)
	}
	h.AssertEqual(len(opsNamed(burned, "S")), 1, "stroked paths")
	h.AssertEqual(len(opsNamed(burned, "f")), 2, "filled paths")
}

func TestBurnIsolatesExistingContent(t *testing.T) {
	h := NewTestHelper(t)
	src := h.fixtures.StatefulContent()

	shapes := []annotate.Shape{{ID: "r", Tool: annotate.ToolRectangle, Extent: annotate.Size{Width: 10, Height: 10}}}
	res, err := annotate.NewAnnotationWriter(nil).Write(src, shapes, annotate.WriterOptions{})
	h.AssertNoError(err, "write")

	streams := h.PageOps(h.Reload(res.Data), 1)
	if len(streams) != 3 {
		t.Fatalf("got %d content streams, want 3", len(streams))
	}
	h.AssertEqual(len(opsNamed(streams[1], "cm")), 1, "original content kept")

	depth := 0
	for _, ops := range streams {
		for _, op := range ops {
			switch op.Operator {
			case "q":
				depth++
			case "Q":
				depth--
			}
			if depth < 0 {
				t.Fatalf("unbalanced Q in page content")
			}
			if op.Operator == "re" && depth != 1 {
				t.Errorf("burned rectangle drawn at depth %d, want 1", depth)
			}
		}
	}
	h.AssertEqual(depth, 0, "q/Q balance")
}

func TestBurnOnlyFirstPage(t *testing.T) {
	h := NewTestHelper(t)
	src, err := h.fixtures.Pages("Letter", 3)
	h.AssertNoError(err, "generate fixture")

	shapes := []annotate.Shape{{ID: "l", Tool: annotate.ToolLine, Extent: annotate.Size{Width: 10, Height: 10}}}
	res, err := annotate.NewAnnotationWriter(nil).Write(src, shapes, annotate.WriterOptions{})
	h.AssertNoError(err, "write")

	doc := h.Reload(res.Data)
	h.AssertEqual(doc.PageCount(), 3, "page count")
	h.AssertEqual(len(h.PageOps(doc, 1)), 3, "page 1 streams")
	for _, n := range []int{2, 3} {
		for _, ops := range h.PageOps(doc, n) {
			h.AssertEqual(len(opsNamed(ops, "S")), 0, "strokes on other pages")
		}
	}
}

func TestBurnCustomPageSize(t *testing.T) {
	h := NewTestHelper(t)
	src, err := h.fixtures.WithSize(300, 200)
	h.AssertNoError(err, "generate fixture")

	shapes := []annotate.Shape{{ID: "r", Tool: annotate.ToolRectangle, Origin: annotate.Point{X: 10, Y: 20}, Extent: annotate.Size{Width: 30, Height: 40}}}
	res, err := annotate.NewAnnotationWriter(nil).Write(src, shapes, annotate.WriterOptions{})
	h.AssertNoError(err, "write")
	h.AssertEqual(res.PageHeight, 200.0, "page height")
	h.AssertEqual(res.PageShapes[0].Y, 140.0, "flipped y")
}

func TestLoadFailures(t *testing.T) {
	h := NewTestHelper(t)
	w := annotate.NewAnnotationWriter(nil)

	for name, data := range map[string][]byte{
		"corrupted":   h.fixtures.Corrupted(),
		"header only": h.fixtures.HeaderOnly(),
	} {
		res, err := w.Write(data, nil, annotate.WriterOptions{})
		h.AssertErrorIs(err, annotate.ErrDocumentLoad, name)
		h.AssertTrue(res == nil, name+": no output on failure")
	}

	res, err := w.Write(h.fixtures.NoPages(), nil, annotate.WriterOptions{})
	if res != nil {
		t.Errorf("zero-page document produced output")
	}
	if kind := annotate.ErrorKind(err); kind != "no_pages" && kind != "document_load" {
		t.Errorf("zero-page document: kind %q (%v)", kind, err)
	}
}

func TestControllerEndToEnd(t *testing.T) {
	h := NewTestHelper(t)
	src := h.Letter()

	ctrl := annotate.NewController(nil)
	info, err := ctrl.LoadDocument(src, annotate.PDFMimeType)
	h.AssertNoError(err, "load")
	h.AssertEqual(info.PageHeight, 792.0, "measured page height")

	ctrl.OnZoomChange(2)
	gestures := []struct {
		tool     annotate.ToolKind
		from, to annotate.Point
	}{
		{annotate.ToolCircle, annotate.Point{X: 100, Y: 100}, annotate.Point{X: 200, Y: 200}},
		{annotate.ToolRectangle, annotate.Point{X: 400, Y: 400}, annotate.Point{X: 300, Y: 300}},
		{annotate.ToolLine, annotate.Point{X: 0, Y: 0}, annotate.Point{X: 100, Y: 50}},
	}
	for _, g := range gestures {
		ctrl.SelectTool(g.tool)
		ctrl.PointerDown(g.from)
		ctrl.PointerMove(g.to)
		if _, ok := ctrl.PointerUp(g.to); !ok {
			t.Fatalf("%s gesture not stored", g.tool)
		}
	}

	vp := ctrl.Viewport()
	cw, ch := vp.CanvasSize()
	var png bytes.Buffer
	err = annotate.WriteOverlayPNG(&png, ctrl.Overlay(), int(cw), int(ch), nil)
	h.AssertNoError(err, "overlay preview")
	img := h.LoadAndValidateImage(png.Bytes())
	h.AssertEqual(img.Bounds().Dx(), 1224, "preview width")

	first, err := ctrl.RequestSave()
	h.AssertNoError(err, "first save")
	h.AssertEqual(first.Name, "pdf-with-drawings.pdf", "output name")

	ctrl.SelectTool(annotate.ToolRectangle)
	ctrl.PointerDown(annotate.Point{X: 10, Y: 10})
	ctrl.PointerUp(annotate.Point{X: 20, Y: 20})
	second, err := ctrl.RequestSave()
	h.AssertNoError(err, "second save")
	h.AssertEqual(second.ShapeCount, 4, "accumulated shapes")

	streams := h.PageOps(h.Reload(second.Data), 1)
	burned := streams[len(streams)-1]
	h.AssertEqual(len(opsNamed(burned, "re")), 2, "rectangles in second save")
	h.AssertEqual(len(opsNamed(burned, "S")), 1, "lines in second save")

	// 缩放 2 下的 (400,400)-(300,300) 存储为 (150,150)-(200,200)
	re, _ := opsNamed(burned, "re")[0].Floats()
	if diff := cmp.Diff([]float64{150, 792 - 200, 50, 50}, re, approx); diff != "" {
		t.Errorf("rectangle drawn at zoom 2 (-want +got):\n%s", diff)
	}
}

func TestBurnPageGeometry(t *testing.T) {
	h := NewTestHelper(t)
	shapes := []annotate.Shape{{
		ID:     "r",
		Tool:   annotate.ToolRectangle,
		Origin: annotate.Point{X: 100, Y: 100},
		Extent: annotate.Size{Width: 100, Height: 50},
	}}

	tests := []struct {
		name      string
		attrs     string
		width     float64
		height    float64
		rotate    int
		rectangle []float64
	}{
		{"offset media box", "/MediaBox [0 100 612 892]", 612, 792, 0, []float64{100, 742, 100, 50}},
		{"negative origin", "/MediaBox [-306 -396 306 396]", 612, 792, 0, []float64{-206, 246, 100, 50}},
		{"crop box", "/MediaBox [0 0 612 792] /CropBox [50 50 562 742]", 512, 692, 0, []float64{150, 592, 100, 50}},
		{"rotate 90", "/MediaBox [0 0 612 792] /Rotate 90", 792, 612, 90, []float64{100, 100, 50, 100}},
		{"rotate 270", "/MediaBox [0 0 612 792] /Rotate 270", 792, 612, 270, []float64{462, 592, 50, 100}},
	}
	for _, tt := range tests {
		src := h.fixtures.PageWithAttrs(tt.attrs)
		res, err := annotate.NewAnnotationWriter(nil).Write(src, shapes, annotate.WriterOptions{})
		h.AssertNoError(err, tt.name+": write")

		doc := h.Reload(res.Data)
		geom, err := doc.PageGeometry(1)
		h.AssertNoError(err, tt.name+": page geometry")
		w, ht := geom.DisplaySize()
		if w != tt.width || ht != tt.height || geom.Rotate != tt.rotate {
			t.Errorf("%s: geometry %vx%v rotate %d, want %vx%v rotate %d",
				tt.name, w, ht, geom.Rotate, tt.width, tt.height, tt.rotate)
		}

		streams := h.PageOps(doc, 1)
		re := opsNamed(streams[len(streams)-1], "re")
		if len(re) != 1 {
			t.Errorf("%s: got %d rectangles, want 1", tt.name, len(re))
			continue
		}
		got, err := re[0].Floats()
		h.AssertNoError(err, tt.name+": rectangle operands")
		if diff := cmp.Diff(tt.rectangle, got, approx); diff != "" {
			t.Errorf("%s: rectangle (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestBurnInheritedPageAttributes(t *testing.T) {
	h := NewTestHelper(t)
	src := h.fixtures.InheritedAttrs("/MediaBox [0 100 612 892] /Rotate 180")

	ctrl := annotate.NewController(nil)
	info, err := ctrl.LoadDocument(src, annotate.PDFMimeType)
	h.AssertNoError(err, "load")
	h.AssertEqual(info.Rotate, 180, "inherited rotation")
	h.AssertEqual(info.PageHeight, 792.0, "inherited page height")

	ctrl.SelectTool(annotate.ToolRectangle)
	ctrl.PointerDown(annotate.Point{X: 100, Y: 100})
	ctrl.PointerUp(annotate.Point{X: 200, Y: 150})
	saved, err := ctrl.RequestSave()
	h.AssertNoError(err, "save")

	streams := h.PageOps(h.Reload(saved.Data), 1)
	re, _ := opsNamed(streams[len(streams)-1], "re")[0].Floats()
	if diff := cmp.Diff([]float64{412, 200, 100, 50}, re, approx); diff != "" {
		t.Errorf("rectangle on inherited geometry (-want +got):\n%s", diff)
	}
}
