package annotate

import "github.com/google/uuid"

// SessionState 绘制会话状态
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionActive
)

func (s SessionState) String() string {
	if s == SessionActive {
		return "active"
	}
	return "idle"
}

// DrawingSession 跟踪进行中的指针手势。
// 每个查看器实例创建一次；每次手势完成后重置锚点，activeTool 跨手势保留。
type DrawingSession struct {
	activeTool  ToolKind
	gestureTool ToolKind
	anchor      *Point
	newID       func() string
}

// NewDrawingSession 创建空闲的绘制会话
func NewDrawingSession() *DrawingSession {
	return &DrawingSession{newID: uuid.NewString}
}

// SelectTool 选择工具。ToolNone 表示取消选择。
// 进行中的手势仍使用按下时的工具。
func (s *DrawingSession) SelectTool(tool ToolKind) {
	if tool != s.activeTool {
		Debug("tool changed: %s -> %s", s.activeTool, tool)
	}
	s.activeTool = tool
}

// ActiveTool 返回当前选中的工具
func (s *DrawingSession) ActiveTool() ToolKind {
	return s.activeTool
}

// State 返回当前状态
func (s *DrawingSession) State() SessionState {
	if s.anchor != nil {
		return SessionActive
	}
	return SessionIdle
}

// IsActive 是否正在绘制
func (s *DrawingSession) IsActive() bool {
	return s.anchor != nil
}

// Anchor 返回锚点（视口归一化坐标）
func (s *DrawingSession) Anchor() (Point, bool) {
	if s.anchor == nil {
		return Point{}, false
	}
	return *s.anchor, true
}

// PointerDown 指针按下。未选择工具时不发生状态转换。
// 已处于 Active 时重新记录锚点。
func (s *DrawingSession) PointerDown(pos Point, zoom float64) bool {
	if s.activeTool == ToolNone {
		Debug("pointer down ignored: no tool selected")
		return false
	}
	anchor := ScreenToViewport(pos, zoom)
	s.anchor = &anchor
	s.gestureTool = s.activeTool
	return true
}

// PointerUp 指针抬起。Active 时生成形状并回到 Idle；
// Idle 时忽略（没有匹配的按下）。
func (s *DrawingSession) PointerUp(pos Point, zoom float64) (Shape, bool) {
	shape, ok := s.Preview(pos, zoom)
	if !ok {
		Debug("pointer up ignored: no active gesture")
		return Shape{}, false
	}
	shape.ID = s.newID()
	s.Reset()
	return shape, true
}

// Preview 返回以 pos 为当前指针位置的进行中形状，不改变状态
func (s *DrawingSession) Preview(pos Point, zoom float64) (Shape, bool) {
	if s.anchor == nil {
		return Shape{}, false
	}
	p := ScreenToViewport(pos, zoom)
	return Shape{
		Tool:   s.gestureTool,
		Origin: *s.anchor,
		Extent: Size{Width: p.X - s.anchor.X, Height: p.Y - s.anchor.Y},
	}, true
}

// Reset 清除锚点回到 Idle，保留 activeTool
func (s *DrawingSession) Reset() {
	s.anchor = nil
	s.gestureTool = ToolNone
}
