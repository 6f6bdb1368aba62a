package annotate

import (
	"github.com/golang/geo/r2"
)

// PageGeometry 页面的可见框（用户空间）和显示旋转。
// 查看器看到的是按 Rotate 顺时针旋转后的可见框，
// ViewportToPage 得到的坐标位于这个显示空间，原点在可见框左下角。
type PageGeometry struct {
	Box    r2.Rect // CropBox 与 MediaBox 的交集，无 CropBox 时为 MediaBox
	Rotate int     // 0、90、180 或 270
}

// NewPageGeometry 创建页面几何。rotate 归一化到 [0, 360)，非 90 的倍数按 0 处理
func NewPageGeometry(box r2.Rect, rotate int) PageGeometry {
	rotate %= 360
	if rotate < 0 {
		rotate += 360
	}
	if rotate%90 != 0 {
		Warn("ignoring invalid page rotation %d", rotate)
		rotate = 0
	}
	return PageGeometry{Box: box, Rotate: rotate}
}

// BoxGeometry 原点在 (0,0)、未旋转的 width x height 页面
func BoxGeometry(width, height float64) PageGeometry {
	return PageGeometry{Box: r2.RectFromPoints(Point{}, Point{X: width, Y: height})}
}

// DisplaySize 返回旋转后显示的宽高
func (g PageGeometry) DisplaySize() (width, height float64) {
	w, h := g.Box.X.Length(), g.Box.Y.Length()
	if g.Rotate == 90 || g.Rotate == 270 {
		return h, w
	}
	return w, h
}

// DisplayToUser 将显示空间坐标（左下角原点，Y 轴向上）映射到用户空间
func (g PageGeometry) DisplayToUser(p Point) Point {
	llx, lly := g.Box.X.Lo, g.Box.Y.Lo
	w, h := g.Box.X.Length(), g.Box.Y.Length()
	switch g.Rotate {
	case 90:
		return Point{X: llx + w - p.Y, Y: lly + p.X}
	case 180:
		return Point{X: llx + w - p.X, Y: lly + h - p.Y}
	case 270:
		return Point{X: llx + p.Y, Y: lly + h - p.X}
	}
	return Point{X: llx + p.X, Y: lly + p.Y}
}

// MapShape 将显示空间的 PageShape 映射到用户空间。
// 旋转是 90 度的倍数，包围盒仍与坐标轴对齐；线段保持方向。
func (g PageGeometry) MapShape(ps PageShape) PageShape {
	a := g.DisplayToUser(Point{X: ps.X, Y: ps.Y})
	b := g.DisplayToUser(Point{X: ps.X + ps.Width, Y: ps.Y + ps.Height})
	box := r2.RectFromPoints(a, b)

	ps.X, ps.Y = box.X.Lo, box.Y.Lo
	ps.Width, ps.Height = box.X.Length(), box.Y.Length()
	ps.Start = g.DisplayToUser(ps.Start)
	ps.End = g.DisplayToUser(ps.End)
	return ps
}

// IsIdentity 可见框从原点开始且未旋转
func (g PageGeometry) IsIdentity() bool {
	return g.Rotate == 0 && g.Box.X.Lo == 0 && g.Box.Y.Lo == 0
}
