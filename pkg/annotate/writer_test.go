package annotate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriterLetterRectangle(t *testing.T) {
	loader := newFakeLoader(1, 612, 792)
	w := NewAnnotationWriter(loader)
	shapes := []Shape{{Tool: ToolRectangle, Origin: Point{X: 100, Y: 100}, Extent: Size{Width: 100, Height: 50}}}

	res, err := w.Write(letterPDF, shapes, WriterOptions{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(res.PageShapes) != 1 {
		t.Fatalf("got %d page shapes, want 1", len(res.PageShapes))
	}
	ps := res.PageShapes[0]
	if ps.X != 100 || ps.Y != 642 || ps.Width != 100 || ps.Height != 50 {
		t.Errorf("page rectangle = (%v, %v, %v, %v), want (100, 642, 100, 50)", ps.X, ps.Y, ps.Width, ps.Height)
	}

	re := findOps(t, res.Content, "re")
	if len(re) != 1 || cmp.Diff([]float64{100, 642, 100, 50}, floats(t, re[0])) != "" {
		t.Errorf("re operators = %v", re)
	}
	if len(loader.last.appended) != 1 || !bytes.Equal(loader.last.appended[0], res.Content) {
		t.Error("content was not appended to the first page")
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF-fake")) {
		t.Errorf("unexpected output %q", res.Data)
	}
}

func TestWriterNoPages(t *testing.T) {
	w := NewAnnotationWriter(newFakeLoader(0, 0, 0))
	shapes := []Shape{{Tool: ToolLine, Extent: Size{Width: 1, Height: 1}}}

	res, err := w.Write(letterPDF, shapes, WriterOptions{})
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
	if res != nil {
		t.Error("no output may be produced on failure")
	}
}

func TestWriterLoadError(t *testing.T) {
	w := NewAnnotationWriter(newFakeLoader(1, 612, 792))

	_, err := w.Write([]byte("garbage"), nil, WriterOptions{})
	if !errors.Is(err, ErrDocumentLoad) {
		t.Fatalf("err = %v, want ErrDocumentLoad", err)
	}
	var loadErr *DocumentLoadError
	if !errors.As(err, &loadErr) || loadErr.Err == nil {
		t.Errorf("expected *DocumentLoadError with cause, got %T", err)
	}
}

func TestWriterNegativeExtentNormalization(t *testing.T) {
	for _, tool := range []ToolKind{ToolRectangle, ToolCircle} {
		up := Shape{Tool: tool, Origin: Point{X: 50, Y: 50}, Extent: Size{Width: -40, Height: -40}}
		down := Shape{Tool: tool, Origin: Point{X: 10, Y: 10}, Extent: Size{Width: 40, Height: 40}}

		w := NewAnnotationWriter(newFakeLoader(1, 612, 792))
		a, err := w.Write(letterPDF, []Shape{up}, WriterOptions{})
		if err != nil {
			t.Fatal(err)
		}
		b, err := w.Write(letterPDF, []Shape{down}, WriterOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Content, b.Content) {
			t.Errorf("%v: content differs\n%s\nvs\n%s", tool, a.Content, b.Content)
		}
	}
}

func TestWriterScalePolicy(t *testing.T) {
	shapes := []Shape{{Tool: ToolRectangle, Origin: Point{X: 10, Y: 10}, Extent: Size{Width: 10, Height: 10}}}
	w := NewAnnotationWriter(newFakeLoader(1, 100, 100))

	native, err := w.Write(letterPDF, shapes, WriterOptions{Zoom: 2})
	if err != nil {
		t.Fatal(err)
	}
	if native.PageShapes[0].Width != 10 {
		t.Errorf("native width = %v, want 10", native.PageShapes[0].Width)
	}

	zoomed, err := w.Write(letterPDF, shapes, WriterOptions{ScalePolicy: ScaleCurrentZoom, Zoom: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ps := zoomed.PageShapes[0]; ps.Width != 20 || ps.X != 20 || ps.Y != 100-40 {
		t.Errorf("zoomed page shape = %+v", ps)
	}
}

func TestWriterKeepsOrderAndInput(t *testing.T) {
	src := append([]byte(nil), letterPDF...)
	shapes := []Shape{
		{Tool: ToolLine, Extent: Size{Width: 5, Height: 5}},
		{Tool: ToolCircle, Extent: Size{Width: 5, Height: 5}},
		{Tool: ToolNone},
		{Tool: ToolRectangle, Extent: Size{Width: 5, Height: 5}},
	}

	res, err := NewAnnotationWriter(newFakeLoader(1, 612, 792)).Write(src, shapes, WriterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var tools []ToolKind
	for _, ps := range res.PageShapes {
		tools = append(tools, ps.Tool)
	}
	if diff := cmp.Diff([]ToolKind{ToolLine, ToolCircle, ToolRectangle}, tools); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if !bytes.Equal(src, letterPDF) {
		t.Error("input buffer was modified")
	}
}

func TestWriterWithoutShapes(t *testing.T) {
	loader := newFakeLoader(1, 612, 792)
	res, err := NewAnnotationWriter(loader).Write(letterPDF, nil, WriterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(loader.last.appended) != 0 {
		t.Error("empty shape list must not append content")
	}
	if len(res.Data) == 0 {
		t.Error("a new document is still produced")
	}
}

func TestWriterDeterministic(t *testing.T) {
	shapes := []Shape{
		{Tool: ToolCircle, Origin: Point{X: 3, Y: 4}, Extent: Size{Width: 7, Height: -2}},
		{Tool: ToolLine, Origin: Point{X: 1, Y: 1}, Extent: Size{Width: 9, Height: 9}},
	}
	w := NewAnnotationWriter(newFakeLoader(1, 612, 792))
	a, _ := w.Write(letterPDF, shapes, WriterOptions{})
	b, _ := w.Write(letterPDF, shapes, WriterOptions{})
	if !bytes.Equal(a.Data, b.Data) {
		t.Error("same inputs produced different output")
	}
}

func TestWriterPageGeometry(t *testing.T) {
	tests := []struct {
		name       string
		geometry   PageGeometry
		want       []float64
		pageWidth  float64
		pageHeight float64
	}{
		{"offset media box", NewPageGeometry(box(0, 100, 612, 892), 0), []float64{100, 742, 100, 50}, 612, 792},
		{"crop box", NewPageGeometry(box(50, 50, 562, 742), 0), []float64{150, 592, 100, 50}, 512, 692},
		{"rotate 90", NewPageGeometry(box(0, 0, 612, 792), 90), []float64{100, 100, 50, 100}, 792, 612},
		{"rotate 180", NewPageGeometry(box(0, 0, 612, 792), 180), []float64{412, 100, 100, 50}, 612, 792},
	}
	shapes := []Shape{{Tool: ToolRectangle, Origin: Point{X: 100, Y: 100}, Extent: Size{Width: 100, Height: 50}}}

	for _, tt := range tests {
		loader := newFakeLoader(1, 0, 0)
		loader.geometry = tt.geometry
		res, err := NewAnnotationWriter(loader).Write(letterPDF, shapes, WriterOptions{})
		if err != nil {
			t.Fatalf("%s: Write: %v", tt.name, err)
		}
		if res.PageWidth != tt.pageWidth || res.PageHeight != tt.pageHeight {
			t.Errorf("%s: display size %vx%v, want %vx%v", tt.name, res.PageWidth, res.PageHeight, tt.pageWidth, tt.pageHeight)
		}
		re := findOps(t, res.Content, "re")
		if len(re) != 1 {
			t.Fatalf("%s: got %d rectangles", tt.name, len(re))
		}
		if diff := cmp.Diff(tt.want, floats(t, re[0])); diff != "" {
			t.Errorf("%s: rectangle (-want +got):\n%s", tt.name, diff)
		}
	}
}
