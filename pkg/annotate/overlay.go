package annotate

import "fmt"

// OverlayKind 叠加层图元类型
type OverlayKind int

const (
	OverlayDisk OverlayKind = iota
	OverlayBox
	OverlaySegment
)

func (k OverlayKind) String() string {
	switch k {
	case OverlayDisk:
		return "disk"
	case OverlayBox:
		return "box"
	default:
		return "segment"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (k OverlayKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (k *OverlayKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "disk":
		*k = OverlayDisk
	case "box":
		*k = OverlayBox
	case "segment":
		*k = OverlaySegment
	default:
		return fmt.Errorf("unknown overlay kind: %q", b)
	}
	return nil
}

// OverlayItem 叠加画布上的一个图元（画布像素坐标）
type OverlayItem struct {
	ShapeID string      `json:"shapeId,omitempty"`
	Kind    OverlayKind `json:"kind"`
	Tool    ToolKind    `json:"tool"`
	Style   ToolStyle   `json:"-"`
	Preview bool        `json:"preview,omitempty"`

	// OverlayDisk
	Center Point   `json:"center"`
	Radius float64 `json:"radius,omitempty"`

	// OverlayBox
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// OverlaySegment
	From Point `json:"from"`
	To   Point `json:"to"`
}

// OverlayRenderer 把存储的形状投影到叠加画布。
// 纯函数：每次调用都按当前 ViewportState 重新计算，不缓存。
type OverlayRenderer struct{}

// Render 按插入顺序投影所有形状
func (OverlayRenderer) Render(shapes []Shape, vp ViewportState) []OverlayItem {
	items := make([]OverlayItem, 0, len(shapes))
	for _, s := range shapes {
		if item, ok := ProjectShape(s, vp); ok {
			items = append(items, item)
		}
	}
	return items
}

// ProjectShape 投影单个形状；ToolNone 形状不可见
func ProjectShape(s Shape, vp ViewportState) (OverlayItem, bool) {
	style, ok := StyleFor(s.Tool)
	if !ok {
		return OverlayItem{}, false
	}

	z := normalizeZoom(vp.Zoom)
	from := OverlayPoint(s.Origin, z, vp.PageHeight)
	to := OverlayPoint(s.End(), z, vp.PageHeight)
	box := normalizedBox(from, Size{Width: to.X - from.X, Height: to.Y - from.Y})

	item := OverlayItem{ShapeID: s.ID, Tool: s.Tool, Style: style}
	switch s.Tool {
	case ToolCircle:
		item.Kind = OverlayDisk
		item.Center = box.Center()
		item.Radius = max(box.X.Length(), box.Y.Length()) / 2
	case ToolRectangle:
		item.Kind = OverlayBox
		item.X, item.Y = box.X.Lo, box.Y.Lo
		item.Width, item.Height = box.X.Length(), box.Y.Length()
	case ToolLine:
		item.Kind = OverlaySegment
		item.From, item.To = from, to
	}
	return item, true
}
