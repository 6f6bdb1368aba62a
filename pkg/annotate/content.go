package annotate

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// kappa 四段三次贝塞尔曲线近似圆弧的控制点系数
var kappa = 4 * (math.Sqrt2 - 1) / 3

// ContentBuilder 生成 PDF 页面内容流操作符。
// 每个图元包在 q/Q 中，不影响页面原有的图形状态。
type ContentBuilder struct {
	buf bytes.Buffer
}

// NewContentBuilder 创建内容流构建器
func NewContentBuilder() *ContentBuilder {
	return &ContentBuilder{}
}

// Bytes 返回已生成的内容流
func (b *ContentBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

// Len 返回内容流长度
func (b *ContentBuilder) Len() int {
	return b.buf.Len()
}

// DrawPageShape 按工具类型生成页面空间形状的原生绘制操作
func (b *ContentBuilder) DrawPageShape(ps PageShape) bool {
	style, ok := StyleFor(ps.Tool)
	if !ok {
		return false
	}
	switch ps.Tool {
	case ToolCircle:
		c := ps.Center()
		r := ps.Radius()
		b.Ellipse(c.X, c.Y, r, r, style)
	case ToolRectangle:
		b.Rectangle(ps.X, ps.Y, ps.Width, ps.Height, style)
	case ToolLine:
		b.Line(ps.Start.X, ps.Start.Y, ps.End.X, ps.End.Y, style)
	}
	return true
}

// Rectangle 填充矩形
func (b *ContentBuilder) Rectangle(x, y, w, h float64, st ToolStyle) {
	b.op("q")
	b.fillColor(st)
	b.op("re", x, y, w, h)
	b.op("f")
	b.op("Q")
}

// Ellipse 填充椭圆，(cx, cy) 为中心
func (b *ContentBuilder) Ellipse(cx, cy, rx, ry float64, st ToolStyle) {
	ox := rx * kappa
	oy := ry * kappa

	b.op("q")
	b.fillColor(st)
	b.op("m", cx-rx, cy)
	b.op("c", cx-rx, cy+oy, cx-ox, cy+ry, cx, cy+ry)
	b.op("c", cx+ox, cy+ry, cx+rx, cy+oy, cx+rx, cy)
	b.op("c", cx+rx, cy-oy, cx+ox, cy-ry, cx, cy-ry)
	b.op("c", cx-ox, cy-ry, cx-rx, cy-oy, cx-rx, cy)
	b.op("h")
	b.op("f")
	b.op("Q")
}

// Line 描边线段
func (b *ContentBuilder) Line(x1, y1, x2, y2 float64, st ToolStyle) {
	b.op("q")
	r, g, bl := st.RGB()
	b.op("RG", r, g, bl)
	b.op("w", st.StrokeWidth)
	b.op("m", x1, y1)
	b.op("l", x2, y2)
	b.op("S")
	b.op("Q")
}

func (b *ContentBuilder) fillColor(st ToolStyle) {
	r, g, bl := st.RGB()
	b.op("rg", r, g, bl)
}

// op 写入 "operand... operator\n"
func (b *ContentBuilder) op(name string, operands ...float64) {
	for _, v := range operands {
		b.buf.WriteString(formatNumber(v))
		b.buf.WriteByte(' ')
	}
	b.buf.WriteString(name)
	b.buf.WriteByte('\n')
}

// formatNumber 以最多 4 位小数格式化，去掉多余的零
func formatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
