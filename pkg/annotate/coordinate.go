package annotate

import (
	"math"

	"github.com/golang/geo/r2"
)

// 三个坐标空间：
//   屏幕/画布空间：像素，原点在左上角，Y 轴向下，随缩放变化
//   视口归一化空间：屏幕坐标除以缩放，原点在左上角，与缩放无关
//   页面空间：PDF 原生坐标，原点在左下角，Y 轴向上

// normalizeZoom 非法缩放按 1 处理
func normalizeZoom(zoom float64) float64 {
	if !(zoom > 0) || math.IsInf(zoom, 0) {
		return 1
	}
	return zoom
}

// ScreenToViewport 将屏幕坐标转换为视口归一化坐标
func ScreenToViewport(p Point, zoom float64) Point {
	return p.Mul(1 / normalizeZoom(zoom))
}

// ViewportToScreen 将视口归一化坐标转换为屏幕坐标
func ViewportToScreen(p Point, zoom float64) Point {
	return p.Mul(normalizeZoom(zoom))
}

// normalizedBox 返回 origin 到 origin+extent 的符号归一化包围盒
func normalizedBox(origin Point, extent Size) r2.Rect {
	return r2.RectFromPoints(origin, Point{X: origin.X + extent.Width, Y: origin.Y + extent.Height})
}

// ViewportToPage 将形状映射到页面空间。
// 先按 zoom 缩放到像素单位，再翻转 Y 轴：pageY = pageHeight - (screenY + screenHeight)。
func ViewportToPage(s Shape, zoom, pageHeight float64) PageShape {
	z := normalizeZoom(zoom)
	origin := s.Origin.Mul(z)
	extent := Size{Width: s.Extent.Width * z, Height: s.Extent.Height * z}

	box := normalizedBox(origin, extent)
	end := Point{X: origin.X + extent.Width, Y: origin.Y + extent.Height}

	return PageShape{
		Tool:   s.Tool,
		X:      box.X.Lo,
		Y:      pageHeight - (box.Y.Lo + box.Y.Length()),
		Width:  box.X.Length(),
		Height: box.Y.Length(),
		Start:  Point{X: origin.X, Y: pageHeight - origin.Y},
		End:    Point{X: end.X, Y: pageHeight - end.Y},
	}
}

// PageToViewport 是 ViewportToPage 的逆映射。
// 线段按 Start/End 还原原始方向；其他形状还原为符号归一化后的 Origin/Extent。
func PageToViewport(p PageShape, zoom, pageHeight float64) Shape {
	z := normalizeZoom(zoom)
	if p.Tool == ToolLine {
		start := Point{X: p.Start.X, Y: pageHeight - p.Start.Y}.Mul(1 / z)
		end := Point{X: p.End.X, Y: pageHeight - p.End.Y}.Mul(1 / z)
		return Shape{
			Tool:   p.Tool,
			Origin: start,
			Extent: Size{Width: end.X - start.X, Height: end.Y - start.Y},
		}
	}
	top := pageHeight - (p.Y + p.Height)
	return Shape{
		Tool:   p.Tool,
		Origin: Point{X: p.X / z, Y: top / z},
		Extent: Size{Width: p.Width / z, Height: p.Height / z},
	}
}

// NormalizeShape 返回 Extent 非负的等价形状。线段保持原样
func NormalizeShape(s Shape) Shape {
	if s.Tool == ToolLine {
		return s
	}
	box := normalizedBox(s.Origin, s.Extent)
	s.Origin = box.Lo()
	s.Extent = Size{Width: box.X.Length(), Height: box.Y.Length()}
	return s
}

// OverlayPoint 将视口归一化坐标投影到叠加画布：按当前缩放放大，
// 并以当前页面高度翻转 Y 轴：screenY = pageHeight - y*zoom。
func OverlayPoint(p Point, zoom, pageHeight float64) Point {
	z := normalizeZoom(zoom)
	return Point{X: p.X * z, Y: pageHeight - p.Y*z}
}
