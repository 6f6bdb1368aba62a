package annotate

import (
	"image/color"

	"golang.org/x/image/colornames"
)

// ToolStyle 工具的固定绘制样式
type ToolStyle struct {
	Color       color.RGBA
	StrokeWidth float64
	Filled      bool
}

var toolStyles = map[ToolKind]ToolStyle{
	ToolCircle:    {Color: colornames.Red, Filled: true},
	ToolRectangle: {Color: colornames.Blue, Filled: true},
	ToolLine:      {Color: colornames.Lime, StrokeWidth: 2},
}

// StyleFor 返回工具样式。ToolNone 没有样式
func StyleFor(tool ToolKind) (ToolStyle, bool) {
	st, ok := toolStyles[tool]
	return st, ok
}

// RGB 返回 [0,1] 范围的颜色分量
func (st ToolStyle) RGB() (r, g, b float64) {
	return float64(st.Color.R) / 255, float64(st.Color.G) / 255, float64(st.Color.B) / 255
}
