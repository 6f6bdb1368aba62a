package annotate

import (
	"errors"
	"fmt"
	"mime"
)

// SavePolicy 保存后是否清空已绘制的形状
type SavePolicy int

const (
	// SaveAccumulate 保留全部形状，之后的保存会重放自加载以来绘制的所有形状
	SaveAccumulate SavePolicy = iota
	// SaveClearAfter 保存成功后清空形状
	SaveClearAfter
)

func (p SavePolicy) String() string {
	if p == SaveClearAfter {
		return "clear-after"
	}
	return "accumulate"
}

// ControllerOptions 控制器选项
type ControllerOptions struct {
	SavePolicy  SavePolicy
	ScalePolicy ScalePolicy
	Loader      Loader  // 默认 pdfcpu
	Logger      *Logger // 默认全局记录器
}

// DocumentInfo 已加载文档的概要
type DocumentInfo struct {
	Size       int     `json:"size"`
	PageCount  int     `json:"pageCount"`
	PageWidth  float64 `json:"pageWidth"`
	PageHeight float64 `json:"pageHeight"`
	Rotate     int     `json:"rotate,omitempty"`
}

// SaveResult 保存结果，交给外部下载协作者
type SaveResult struct {
	Name       string `json:"name"`
	Data       []byte `json:"data"`
	ShapeCount int    `json:"shapeCount"`
}

// Controller 查看器集成层：拥有一个文档生命周期内的
// DrawingSession、ShapeStore 和 ViewportState，串行处理 UI 命令。
// 不做并发保护，调用方需保证单一写者。
type Controller struct {
	session  *DrawingSession
	store    *ShapeStore
	viewport *ViewportState
	overlay  OverlayRenderer
	loader   Loader
	writer   *AnnotationWriter
	opts     ControllerOptions
	log      *Logger

	document []byte
	preview  *Shape
}

// NewController 创建控制器
func NewController(opts *ControllerOptions) *Controller {
	if opts == nil {
		opts = &ControllerOptions{}
	}
	o := *opts
	if o.Loader == nil {
		o.Loader = NewPDFLoader()
	}
	if o.Logger == nil {
		o.Logger = GetLogger()
	}
	return &Controller{
		session:  NewDrawingSession(),
		store:    NewShapeStore(),
		viewport: NewViewportState(),
		loader:   o.Loader,
		writer:   NewAnnotationWriter(o.Loader),
		opts:     o,
		log:      o.Logger,
	}
}

// LoadDocument 加载新文档。mimeType 为空时按文件头判断。
// 成功后丢弃之前的形状和会话状态；失败时保持原状态。
func (c *Controller) LoadDocument(data []byte, mimeType string) (*DocumentInfo, error) {
	if !acceptsMime(data, mimeType) {
		c.log.Warn("rejected document: mime %q", mimeType)
		return nil, ErrUnsupportedFileType
	}

	doc, err := c.loader.Load(data)
	if err != nil {
		c.log.Warn("document load failed: %v", err)
		var loadErr *DocumentLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &DocumentLoadError{Err: err}
	}

	info := &DocumentInfo{Size: len(data), PageCount: doc.PageCount()}
	if info.PageCount > 0 {
		geom, err := doc.PageGeometry(1)
		if err != nil {
			return nil, &DocumentLoadError{Err: err}
		}
		info.PageWidth, info.PageHeight = geom.DisplaySize()
		info.Rotate = geom.Rotate
	}

	c.document = append([]byte(nil), data...)
	c.store.Clear()
	c.session.Reset()
	c.preview = nil
	if info.PageCount > 0 {
		c.viewport.OnPageMeasured(info.PageWidth, info.PageHeight)
	}

	c.log.Info("document loaded: %d bytes, %d pages, first page %.0fx%.0f",
		info.Size, info.PageCount, info.PageWidth, info.PageHeight)
	return info, nil
}

func acceptsMime(data []byte, mimeType string) bool {
	if mimeType == "" {
		return LooksLikePDF(data)
	}
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return mt == PDFMimeType
}

// HasDocument 是否已加载文档
func (c *Controller) HasDocument() bool {
	return c.document != nil
}

// SelectTool 选择绘图工具
func (c *Controller) SelectTool(tool ToolKind) {
	c.session.SelectTool(tool)
}

// PointerDown 指针按下（画布像素坐标）
func (c *Controller) PointerDown(pos Point) {
	if c.session.PointerDown(pos, c.viewport.Zoom) {
		c.preview = nil
	}
}

// PointerMove 指针移动，只更新预览，不影响存储
func (c *Controller) PointerMove(pos Point) {
	if s, ok := c.session.Preview(pos, c.viewport.Zoom); ok {
		c.preview = &s
	}
}

// PointerUp 指针抬起。完成手势时追加形状并返回
func (c *Controller) PointerUp(pos Point) (Shape, bool) {
	s, ok := c.session.PointerUp(pos, c.viewport.Zoom)
	c.preview = nil
	if !ok {
		return Shape{}, false
	}
	c.store.Append(s)
	return s, true
}

// OnZoomChange 查看器缩放变化
func (c *Controller) OnZoomChange(factor float64) {
	c.viewport.OnZoomChange(factor)
}

// OnPageMeasured 查看器报告首页尺寸
func (c *Controller) OnPageMeasured(width, height float64) {
	c.viewport.OnPageMeasured(width, height)
}

// OnViewportResize 叠加画布尺寸变化
func (c *Controller) OnViewportResize(width, height float64) {
	c.viewport.OnViewportResize(width, height)
}

// Viewport 返回当前视口状态副本
func (c *Controller) Viewport() ViewportState {
	return *c.viewport
}

// Shapes 按顺序返回已存储的形状
func (c *Controller) Shapes() []Shape {
	return c.store.All()
}

// ActiveTool 返回当前工具
func (c *Controller) ActiveTool() ToolKind {
	return c.session.ActiveTool()
}

// Drawing 是否有进行中的手势
func (c *Controller) Drawing() bool {
	return c.session.IsActive()
}

// Overlay 按当前视口投影所有形状；进行中的预览排在最后
func (c *Controller) Overlay() []OverlayItem {
	items := c.overlay.Render(c.store.All(), *c.viewport)
	if c.preview != nil {
		if item, ok := ProjectShape(*c.preview, *c.viewport); ok {
			item.Preview = true
			items = append(items, item)
		}
	}
	return items
}

// RequestSave 将全部形状写入原文档的新副本。
// 未加载文档时返回 ErrNoActiveDocument，不视为致命错误。
func (c *Controller) RequestSave() (*SaveResult, error) {
	if c.document == nil {
		c.log.Info("save requested without a document")
		return nil, ErrNoActiveDocument
	}

	shapes := c.store.All()
	res, err := c.writer.Write(c.document, shapes, WriterOptions{
		ScalePolicy: c.opts.ScalePolicy,
		Zoom:        c.viewport.Zoom,
	})
	if err != nil {
		c.log.Error("save failed: %v", err)
		return nil, err
	}

	if c.opts.SavePolicy == SaveClearAfter {
		c.store.Clear()
	}
	c.log.Info("saved %s with %d shapes (policy %s)", OutputName, len(shapes), c.opts.SavePolicy)
	return &SaveResult{Name: OutputName, Data: res.Data, ShapeCount: len(shapes)}, nil
}

// CommandKind UI 命令类型
type CommandKind string

const (
	CmdSelectTool   CommandKind = "select_tool"
	CmdPointerDown  CommandKind = "pointer_down"
	CmdPointerMove  CommandKind = "pointer_move"
	CmdPointerUp    CommandKind = "pointer_up"
	CmdZoom         CommandKind = "zoom"
	CmdPageMeasured CommandKind = "page_measured"
	CmdResize       CommandKind = "resize"
	CmdLoad         CommandKind = "load"
	CmdSave         CommandKind = "save"
	CmdOverlay      CommandKind = "overlay"
)

// Command 查看器发给引擎的命令
type Command struct {
	Kind     CommandKind
	Tool     ToolKind
	Pos      Point
	Factor   float64
	Width    float64
	Height   float64
	Data     []byte
	MimeType string
}

// Result 命令结果，按命令类型填充
type Result struct {
	Shape    *Shape
	Overlay  []OverlayItem
	Document *SaveResult
	Info     *DocumentInfo
}

// Dispatch 执行一条命令。状态变化在此串行发生
func (c *Controller) Dispatch(cmd Command) (Result, error) {
	switch cmd.Kind {
	case CmdSelectTool:
		c.SelectTool(cmd.Tool)
	case CmdPointerDown:
		c.PointerDown(cmd.Pos)
	case CmdPointerMove:
		c.PointerMove(cmd.Pos)
	case CmdPointerUp:
		if s, ok := c.PointerUp(cmd.Pos); ok {
			return Result{Shape: &s}, nil
		}
	case CmdZoom:
		c.OnZoomChange(cmd.Factor)
	case CmdPageMeasured:
		c.OnPageMeasured(cmd.Width, cmd.Height)
	case CmdResize:
		c.OnViewportResize(cmd.Width, cmd.Height)
	case CmdLoad:
		info, err := c.LoadDocument(cmd.Data, cmd.MimeType)
		if err != nil {
			return Result{}, err
		}
		return Result{Info: info}, nil
	case CmdSave:
		doc, err := c.RequestSave()
		if err != nil {
			return Result{}, err
		}
		return Result{Document: doc}, nil
	case CmdOverlay:
		return Result{Overlay: c.Overlay()}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
	}
	return Result{}, nil
}
