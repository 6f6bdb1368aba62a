package annotate

import (
	"bytes"
	"errors"
	"fmt"
)

// OutputName 输出文档的固定文件名
const OutputName = "pdf-with-drawings.pdf"

// ScalePolicy 写入时视口归一化单位到页面点的换算方式
type ScalePolicy int

const (
	// ScaleNative 归一化单位即页面点（缩放为 1 时一像素对应一点）
	ScaleNative ScalePolicy = iota
	// ScaleCurrentZoom 使用保存时的查看器缩放
	ScaleCurrentZoom
)

func (p ScalePolicy) String() string {
	if p == ScaleCurrentZoom {
		return "current-zoom"
	}
	return "native"
}

// WriterOptions 写入选项。
// 零值使用 ScaleNative：视口归一化单位直接作为页面点，相当于按缩放 1 写入；
// 需要按保存时的查看器缩放换算时设置 ScaleCurrentZoom 和 Zoom。
type WriterOptions struct {
	ScalePolicy ScalePolicy
	// Zoom 仅在 ScaleCurrentZoom 下使用
	Zoom float64
}

func (o WriterOptions) zoom() float64 {
	if o.ScalePolicy == ScaleCurrentZoom {
		return normalizeZoom(o.Zoom)
	}
	return 1
}

// WriteResult 写入结果
type WriteResult struct {
	Data       []byte      // 新文档
	Content    []byte      // 追加到首页的内容流（未压缩）
	PageShapes []PageShape // 按存储顺序映射到用户空间的形状
	PageWidth  float64     // 显示宽度（已考虑旋转）
	PageHeight float64     // 显示高度（已考虑旋转）
	Geometry   PageGeometry
}

// AnnotationWriter 把存储的形状作为原生页面内容写入新文档
type AnnotationWriter struct {
	loader Loader
}

// NewAnnotationWriter 创建写入器，loader 为 nil 时使用 pdfcpu
func NewAnnotationWriter(loader Loader) *AnnotationWriter {
	if loader == nil {
		loader = NewPDFLoader()
	}
	return &AnnotationWriter{loader: loader}
}

// Write 加载 src，按顺序在首页重放 shapes，序列化为新文档。
// 形状先映射到显示空间，再按可见框偏移和页面旋转映射到用户空间。
// src 不会被修改；失败时不产生任何输出。
func (w *AnnotationWriter) Write(src []byte, shapes []Shape, opts WriterOptions) (*WriteResult, error) {
	doc, err := w.loader.Load(src)
	if err != nil {
		var loadErr *DocumentLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &DocumentLoadError{Err: err}
	}
	if doc.PageCount() == 0 {
		return nil, ErrNoPages
	}

	geom, err := doc.PageGeometry(1)
	if err != nil {
		return nil, &DocumentLoadError{Err: err}
	}
	pageWidth, pageHeight := geom.DisplaySize()

	zoom := opts.zoom()
	builder := NewContentBuilder()
	pageShapes := make([]PageShape, 0, len(shapes))
	for _, s := range shapes {
		ps := geom.MapShape(ViewportToPage(s, zoom, pageHeight))
		if !builder.DrawPageShape(ps) {
			Warn("skipping shape %s with no tool", s.ID)
			continue
		}
		pageShapes = append(pageShapes, ps)
	}

	if builder.Len() > 0 {
		if err := doc.AppendPageContent(1, builder.Bytes()); err != nil {
			return nil, fmt.Errorf("failed to append page content: %w", err)
		}
	}

	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}

	Info("burned %d shapes into page 1 (%.0fx%.0f, rotate %d, scale %s), %d bytes",
		len(pageShapes), pageWidth, pageHeight, geom.Rotate, opts.ScalePolicy, out.Len())

	return &WriteResult{
		Data:       out.Bytes(),
		Content:    append([]byte(nil), builder.Bytes()...),
		PageShapes: pageShapes,
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
		Geometry:   geom,
	}, nil
}
