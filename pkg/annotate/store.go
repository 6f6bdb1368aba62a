package annotate

// ShapeStore 已完成形状的有序只追加集合。
// 没有删除或修改接口；Clear 只在加载新文档（或 SaveClearAfter 策略）时使用。
type ShapeStore struct {
	shapes []Shape
}

// NewShapeStore 创建空集合
func NewShapeStore() *ShapeStore {
	return &ShapeStore{}
}

// Append 追加形状
func (s *ShapeStore) Append(shape Shape) {
	s.shapes = append(s.shapes, shape)
	Debug("shape #%d appended: %s id=%s origin=(%.2f, %.2f) extent=(%.2f, %.2f)",
		len(s.shapes), shape.Tool, shape.ID,
		shape.Origin.X, shape.Origin.Y, shape.Extent.Width, shape.Extent.Height)
}

// All 按插入顺序返回所有形状的副本
func (s *ShapeStore) All() []Shape {
	out := make([]Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// Len 返回形状数量
func (s *ShapeStore) Len() int {
	return len(s.shapes)
}

// Clear 清空集合
func (s *ShapeStore) Clear() {
	s.shapes = nil
}
