package annotate

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/novvoo/go-cairo/pkg/cairo"
)

// RasterOptions 叠加层栅格化选项
type RasterOptions struct {
	Scale      float64 // 像素缩放，默认 1
	Background *RGB    // 背景色，nil 表示透明
}

// RGB 颜色
type RGB struct {
	R, G, B float64
}

// RasterizeOverlay 使用 Cairo 将叠加图元绘制到 width x height 的透明画布
func RasterizeOverlay(items []OverlayItem, width, height int, opts *RasterOptions) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size: %dx%d", width, height)
	}
	if opts == nil {
		opts = &RasterOptions{}
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	surface := cairo.NewImageSurface(cairo.FormatARGB32, width, height)
	defer surface.Destroy()

	imgSurf, ok := surface.(cairo.ImageSurface)
	if !ok {
		return nil, fmt.Errorf("failed to create image surface")
	}

	ctx := cairo.NewContext(surface)
	defer ctx.Destroy()

	if opts.Background != nil {
		ctx.SetSourceRGB(opts.Background.R, opts.Background.G, opts.Background.B)
		ctx.Paint()
	}
	ctx.Scale(scale, scale)

	for _, item := range items {
		paintOverlayItem(ctx, item)
	}

	return surfaceToRGBA(imgSurf), nil
}

// paintOverlayItem 绘制单个图元
func paintOverlayItem(ctx cairo.Context, item OverlayItem) {
	ctx.Save()
	defer ctx.Restore()

	r, g, b := item.Style.RGB()
	alpha := 1.0
	if item.Preview {
		alpha = 0.5
	}
	ctx.SetSourceRGBA(r, g, b, alpha)

	switch item.Kind {
	case OverlayDisk:
		ctx.Arc(item.Center.X, item.Center.Y, item.Radius, 0, 2*math.Pi)
		ctx.Fill()
	case OverlayBox:
		ctx.Rectangle(item.X, item.Y, item.Width, item.Height)
		ctx.Fill()
	case OverlaySegment:
		ctx.SetLineWidth(item.Style.StrokeWidth)
		ctx.MoveTo(item.From.X, item.From.Y)
		ctx.LineTo(item.To.X, item.To.Y)
		ctx.Stroke()
	}
}

// surfaceToRGBA 复制 Cairo ARGB32 数据。
// Cairo 使用预乘 alpha 的 BGRA 字节序，image.RGBA 同样是预乘的，只需交换通道。
func surfaceToRGBA(imgSurf cairo.ImageSurface) *image.RGBA {
	data := imgSurf.GetData()
	stride := imgSurf.GetStride()
	width := imgSurf.GetWidth()
	height := imgSurf.GetHeight()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			src := y*stride + x*4
			dst := img.PixOffset(x, y)
			img.Pix[dst+0] = data[src+2]
			img.Pix[dst+1] = data[src+1]
			img.Pix[dst+2] = data[src+0]
			img.Pix[dst+3] = data[src+3]
		}
	}
	return img
}

// WriteOverlayPNG 栅格化并以 PNG 写出
func WriteOverlayPNG(w io.Writer, items []OverlayItem, width, height int, opts *RasterOptions) error {
	img, err := RasterizeOverlay(items, width, height, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}
