package annotate

import (
	"fmt"
	"strings"

	"github.com/golang/geo/r2"
)

// ToolKind 绘图工具类型
type ToolKind int

const (
	// ToolNone 未选择工具，按下指针不会开始绘制
	ToolNone ToolKind = iota
	ToolCircle
	ToolRectangle
	ToolLine
)

// String 返回工具名称
func (t ToolKind) String() string {
	switch t {
	case ToolCircle:
		return "circle"
	case ToolRectangle:
		return "rectangle"
	case ToolLine:
		return "line"
	default:
		return "none"
	}
}

// ParseToolKind 从名称解析工具类型，空字符串和 "none" 解析为 ToolNone
func ParseToolKind(name string) (ToolKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return ToolNone, nil
	case "circle":
		return ToolCircle, nil
	case "rectangle", "rect":
		return ToolRectangle, nil
	case "line":
		return ToolLine, nil
	}
	return ToolNone, fmt.Errorf("unknown tool: %q", name)
}

// MarshalText 实现 encoding.TextMarshaler
func (t ToolKind) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *ToolKind) UnmarshalText(b []byte) error {
	k, err := ParseToolKind(string(b))
	if err != nil {
		return err
	}
	*t = k
	return nil
}

// Point 二维点。所在坐标空间由上下文决定
type Point = r2.Point

// Size 宽高，可以为负（向上/向左拖动）
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Shape 一次完成的绘制手势。
// Origin 和 Extent 以视口归一化单位存储（像素坐标除以绘制时的缩放），
// 因此与缩放无关。创建后不可修改。
type Shape struct {
	ID     string   `json:"id"`
	Tool   ToolKind `json:"tool"`
	Origin Point    `json:"origin"`
	Extent Size     `json:"extent"`
}

// End 返回 Origin + Extent
func (s Shape) End() Point {
	return Point{X: s.Origin.X + s.Extent.Width, Y: s.Origin.Y + s.Extent.Height}
}

// PageShape 页面坐标空间中的形状（原点在左下角，Y 轴向上）。
// X/Y/Width/Height 是符号归一化后的包围盒，Width/Height >= 0；
// Start/End 保留线段的原始方向。
type PageShape struct {
	Tool   ToolKind
	X      float64
	Y      float64
	Width  float64
	Height float64
	Start  Point
	End    Point
}

// Center 返回包围盒中心
func (p PageShape) Center() Point {
	return Point{X: p.X + p.Width/2, Y: p.Y + p.Height/2}
}

// Radius 返回圆形半径 max(width, height)/2
func (p PageShape) Radius() float64 {
	if p.Width > p.Height {
		return p.Width / 2
	}
	return p.Height / 2
}

// ViewportState 视口状态。Zoom 由查看器在缩放时写入，
// PageWidth/PageHeight 是首页的原始（未缩放）尺寸，
// CanvasWidth/CanvasHeight 是叠加画布的当前像素尺寸。
type ViewportState struct {
	Zoom         float64 `json:"zoom"`
	PageWidth    float64 `json:"pageWidth"`
	PageHeight   float64 `json:"pageHeight"`
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`
}

// NewViewportState 创建默认视口状态（缩放 1，页面尺寸未知）
func NewViewportState() *ViewportState {
	return &ViewportState{Zoom: 1}
}

// OnZoomChange 查看器缩放变化。非正数、NaN 和无穷大被忽略
func (v *ViewportState) OnZoomChange(factor float64) {
	if normalizeZoom(factor) != factor {
		Warn("ignoring invalid zoom factor %v", factor)
		return
	}
	v.Zoom = factor
}

// OnPageMeasured 首页测量完成
func (v *ViewportState) OnPageMeasured(width, height float64) {
	v.PageWidth = width
	v.PageHeight = height
}

// OnViewportResize 叠加画布尺寸变化，不影响已存储的形状
func (v *ViewportState) OnViewportResize(width, height float64) {
	v.CanvasWidth = width
	v.CanvasHeight = height
}

// CanvasSize 返回叠加画布尺寸；未报告时按页面尺寸乘以缩放计算
func (v *ViewportState) CanvasSize() (float64, float64) {
	if v.CanvasWidth > 0 && v.CanvasHeight > 0 {
		return v.CanvasWidth, v.CanvasHeight
	}
	z := normalizeZoom(v.Zoom)
	return v.PageWidth * z, v.PageHeight * z
}
