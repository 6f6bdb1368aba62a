package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/novvoo/go-pdf-annotate/pkg/annotate"
)

// 服务端响应类型
const (
	TypeOK       = "ok"
	TypeOverlay  = "overlay"
	TypeDocument = "document"
	TypeError    = "error"
)

// errBadRequest 无法解码或字段不合法的消息
var errBadRequest = errors.New("bad request")

// Request 客户端消息。Data 在 JSON 中为 base64
type Request struct {
	Type   string            `json:"type"`
	Tool   annotate.ToolKind `json:"tool,omitempty"`
	X      float64           `json:"x,omitempty"`
	Y      float64           `json:"y,omitempty"`
	Factor float64           `json:"factor,omitempty"`
	Width  float64           `json:"width,omitempty"`
	Height float64           `json:"height,omitempty"`
	Mime   string            `json:"mime,omitempty"`
	Data   []byte            `json:"data,omitempty"`
}

// Vec 线上的二维坐标
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toVec(p annotate.Point) Vec {
	return Vec{X: p.X, Y: p.Y}
}

// ShapeMsg 已存储的形状（视口归一化单位）
type ShapeMsg struct {
	ID     string            `json:"id"`
	Tool   annotate.ToolKind `json:"tool"`
	Origin Vec               `json:"origin"`
	Extent annotate.Size     `json:"extent"`
}

func toShapeMsg(s annotate.Shape) *ShapeMsg {
	return &ShapeMsg{ID: s.ID, Tool: s.Tool, Origin: toVec(s.Origin), Extent: s.Extent}
}

// RectMsg 画布像素下的矩形
type RectMsg struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OverlayMsg 叠加图元。disk 填 center/radius，box 填 rect，segment 填 from/to
type OverlayMsg struct {
	ShapeID     string               `json:"shapeId,omitempty"`
	Kind        annotate.OverlayKind `json:"kind"`
	Tool        annotate.ToolKind    `json:"tool"`
	Color       string               `json:"color"`
	StrokeWidth float64              `json:"strokeWidth,omitempty"`
	Preview     bool                 `json:"preview,omitempty"`
	Center      *Vec                 `json:"center,omitempty"`
	Radius      float64              `json:"radius,omitempty"`
	Rect        *RectMsg             `json:"rect,omitempty"`
	From        *Vec                 `json:"from,omitempty"`
	To          *Vec                 `json:"to,omitempty"`
}

func toOverlayMsgs(items []annotate.OverlayItem) []OverlayMsg {
	out := make([]OverlayMsg, 0, len(items))
	for _, it := range items {
		c := it.Style.Color
		msg := OverlayMsg{
			ShapeID:     it.ShapeID,
			Kind:        it.Kind,
			Tool:        it.Tool,
			Color:       fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
			StrokeWidth: it.Style.StrokeWidth,
			Preview:     it.Preview,
		}
		switch it.Kind {
		case annotate.OverlayDisk:
			center := toVec(it.Center)
			msg.Center, msg.Radius = &center, it.Radius
		case annotate.OverlayBox:
			msg.Rect = &RectMsg{X: it.X, Y: it.Y, Width: it.Width, Height: it.Height}
		case annotate.OverlaySegment:
			from, to := toVec(it.From), toVec(it.To)
			msg.From, msg.To = &from, &to
		}
		out = append(out, msg)
	}
	return out
}

// Response 服务端消息
type Response struct {
	Type    string                 `json:"type"`
	Shape   *ShapeMsg              `json:"shape,omitempty"`
	Info    *annotate.DocumentInfo `json:"info,omitempty"`
	Items   []OverlayMsg           `json:"items,omitempty"`
	Name    string                 `json:"name,omitempty"`
	Data    []byte                 `json:"data,omitempty"`
	Shapes  int                    `json:"shapes,omitempty"`
	Kind    string                 `json:"kind,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// decodeRequest 解码一帧文本消息
func decodeRequest(frame []byte, maxDocument int64) (*Request, error) {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if req.Type == "" {
		return nil, fmt.Errorf("%w: missing type", errBadRequest)
	}
	if maxDocument > 0 && int64(len(req.Data)) > maxDocument {
		return nil, fmt.Errorf("%w: document of %d bytes exceeds limit %d", errBadRequest, len(req.Data), maxDocument)
	}
	return &req, nil
}

// command 转换为控制器命令
func (r *Request) command() annotate.Command {
	return annotate.Command{
		Kind:     annotate.CommandKind(r.Type),
		Tool:     r.Tool,
		Pos:      annotate.Point{X: r.X, Y: r.Y},
		Factor:   r.Factor,
		Width:    r.Width,
		Height:   r.Height,
		Data:     r.Data,
		MimeType: r.Mime,
	}
}

// newResponse 根据命令结果构造响应
func newResponse(res annotate.Result) *Response {
	switch {
	case res.Document != nil:
		return &Response{
			Type:   TypeDocument,
			Name:   res.Document.Name,
			Data:   res.Document.Data,
			Shapes: res.Document.ShapeCount,
		}
	case res.Overlay != nil:
		return &Response{Type: TypeOverlay, Items: toOverlayMsgs(res.Overlay)}
	}
	resp := &Response{Type: TypeOK, Info: res.Info}
	if res.Shape != nil {
		resp.Shape = toShapeMsg(*res.Shape)
	}
	return resp
}

// errorResponse 错误响应，Kind 取自 annotate.ErrorKind
func errorResponse(err error) *Response {
	kind := annotate.ErrorKind(err)
	if errors.Is(err, errBadRequest) {
		kind = "bad_request"
	}
	return &Response{Type: TypeError, Kind: kind, Message: err.Error()}
}
