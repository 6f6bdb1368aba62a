package annotate

import (
	"bytes"
	"io"

	"github.com/golang/geo/r2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/pkg/errors"
)

// PDFMimeType 唯一接受的文档类型
const PDFMimeType = "application/pdf"

// Document 已加载的文档。页码从 1 开始
type Document interface {
	PageCount() int
	// PageGeometry 返回页面的可见框和旋转
	PageGeometry(pageNr int) (PageGeometry, error)
	AppendPageContent(pageNr int, content []byte) error
	// PageContent 返回页面的内容流（已解码），按绘制顺序排列
	PageContent(pageNr int) ([][]byte, error)
	Write(w io.Writer) error
}

// Loader 从字节解析文档。实现不得修改输入
type Loader interface {
	Load(data []byte) (Document, error)
}

// LooksLikePDF 检查前 1024 字节内是否有 %PDF- 文件头
func LooksLikePDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

// PDFLoader 基于 pdfcpu 的文档加载器
type PDFLoader struct {
	// Strict 为 true 时使用严格校验，默认宽松
	Strict bool
}

// NewPDFLoader 创建宽松校验的加载器
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if l.Strict {
		conf.ValidationMode = model.ValidationStrict
	}
	return conf
}

// Load 读取并校验 PDF。任何解析失败都返回 *DocumentLoadError
func (l *PDFLoader) Load(data []byte) (Document, error) {
	if !LooksLikePDF(data) {
		return nil, &DocumentLoadError{Err: errors.New("missing %PDF- header")}
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), l.configuration())
	if err != nil {
		return nil, &DocumentLoadError{Err: errors.Wrap(err, "read context")}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &DocumentLoadError{Err: errors.Wrap(err, "validate context")}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &DocumentLoadError{Err: errors.Wrap(err, "page count")}
	}

	Debug("pdf loaded: %d bytes, %d pages", len(data), ctx.PageCount)
	return &pdfDocument{ctx: ctx}, nil
}

// pdfDocument pdfcpu 上下文包装
type pdfDocument struct {
	ctx *model.Context
}

func (d *pdfDocument) PageCount() int {
	return d.ctx.PageCount
}

// maxPageTreeDepth 查找继承属性时最多向上的层数
const maxPageTreeDepth = 32

// PageGeometry 读取 MediaBox、CropBox 和 Rotate，三者都可以从页面树继承
func (d *pdfDocument) PageGeometry(pageNr int) (PageGeometry, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return PageGeometry{}, errors.Errorf("invalid page number: %d (total pages: %d)", pageNr, d.ctx.PageCount)
	}
	pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return PageGeometry{}, errors.Wrapf(err, "page %d", pageNr)
	}
	if pageDict == nil {
		return PageGeometry{}, errors.Errorf("page %d: missing page dictionary", pageNr)
	}

	mediaObj, err := d.inherited(pageDict, "MediaBox")
	if err != nil {
		return PageGeometry{}, errors.Wrapf(err, "page %d", pageNr)
	}
	media, ok := d.rect(mediaObj)
	if !ok {
		return PageGeometry{}, errors.Errorf("page %d: missing or invalid MediaBox", pageNr)
	}

	box := media
	if cropObj, err := d.inherited(pageDict, "CropBox"); err == nil && cropObj != nil {
		if crop, ok := d.rect(cropObj); ok {
			if visible := crop.Intersection(media); !visible.IsEmpty() {
				box = visible
			}
		}
	}

	rotate := 0
	if rotObj, err := d.inherited(pageDict, "Rotate"); err == nil && rotObj != nil {
		if v, ok := d.number(rotObj); ok {
			rotate = int(v)
		}
	}

	g := NewPageGeometry(box, rotate)
	if !g.IsIdentity() {
		Debug("page %d: visible box (%.2f, %.2f)-(%.2f, %.2f), rotate %d",
			pageNr, box.X.Lo, box.Y.Lo, box.X.Hi, box.Y.Hi, g.Rotate)
	}
	return g, nil
}

// inherited 在页面字典及其祖先中查找 key，未找到时返回 nil
func (d *pdfDocument) inherited(dict types.Dict, key string) (types.Object, error) {
	for depth := 0; dict != nil && depth < maxPageTreeDepth; depth++ {
		if obj, found := dict.Find(key); found && obj != nil {
			return d.ctx.Dereference(obj)
		}
		parent, found := dict.Find("Parent")
		if !found || parent == nil {
			return nil, nil
		}
		next, err := d.ctx.DereferenceDict(parent)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve parent for %s", key)
		}
		dict = next
	}
	return nil, nil
}

// rect 解析 [llx lly urx ury]，允许坐标顺序颠倒
func (d *pdfDocument) rect(obj types.Object) (r2.Rect, bool) {
	arr, ok := obj.(types.Array)
	if !ok || len(arr) != 4 {
		return r2.Rect{}, false
	}
	var v [4]float64
	for i, o := range arr {
		o, err := d.ctx.Dereference(o)
		if err != nil {
			return r2.Rect{}, false
		}
		n, ok := d.number(o)
		if !ok {
			return r2.Rect{}, false
		}
		v[i] = n
	}
	r := r2.RectFromPoints(Point{X: v[0], Y: v[1]}, Point{X: v[2], Y: v[3]})
	if r.X.Length() <= 0 || r.Y.Length() <= 0 {
		return r2.Rect{}, false
	}
	return r, true
}

func (d *pdfDocument) number(obj types.Object) (float64, bool) {
	switch v := obj.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

// AppendPageContent 在页面原有内容之后追加一个内容流。
// 原有内容被 q/Q 包围，使其遗留的图形状态不影响新内容。
func (d *pdfDocument) AppendPageContent(pageNr int, content []byte) error {
	pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return errors.Wrapf(err, "page %d", pageNr)
	}
	if pageDict == nil {
		return errors.Errorf("page %d: missing page dictionary", pageNr)
	}

	var contents types.Array
	if obj, found := pageDict.Find("Contents"); found && obj != nil {
		switch o := obj.(type) {
		case types.IndirectRef:
			deref, err := d.ctx.Dereference(o)
			if err != nil {
				return errors.Wrapf(err, "page %d: dereference contents", pageNr)
			}
			if arr, ok := deref.(types.Array); ok {
				contents = append(contents, arr...)
			} else {
				contents = append(contents, o)
			}
		case types.Array:
			contents = append(contents, o...)
		}
	}

	if len(contents) > 0 {
		save, err := d.newContentStream([]byte("q\n"))
		if err != nil {
			return err
		}
		contents = append(types.Array{*save}, contents...)
		content = append([]byte("Q\n"), content...)
	}

	ref, err := d.newContentStream(content)
	if err != nil {
		return err
	}
	pageDict["Contents"] = append(contents, *ref)
	return nil
}

func (d *pdfDocument) PageContent(pageNr int) ([][]byte, error) {
	pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, errors.Wrapf(err, "page %d", pageNr)
	}
	if pageDict == nil {
		return nil, errors.Errorf("page %d: missing page dictionary", pageNr)
	}
	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	return d.contentStreams(obj)
}

func (d *pdfDocument) contentStreams(obj types.Object) ([][]byte, error) {
	switch o := obj.(type) {
	case types.IndirectRef:
		deref, err := d.ctx.Dereference(o)
		if err != nil {
			return nil, errors.Wrap(err, "dereference contents")
		}
		return d.contentStreams(deref)
	case types.StreamDict:
		if len(o.Content) == 0 && len(o.Raw) > 0 {
			if err := o.Decode(); err != nil {
				return nil, errors.Wrap(err, "decode content stream")
			}
		}
		return [][]byte{o.Content}, nil
	case types.Array:
		var streams [][]byte
		for _, item := range o {
			s, err := d.contentStreams(item)
			if err != nil {
				return nil, err
			}
			streams = append(streams, s...)
		}
		return streams, nil
	}
	return nil, errors.Errorf("unexpected contents object %T", obj)
}

func (d *pdfDocument) newContentStream(content []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, errors.Wrap(err, "new content stream")
	}
	if err := sd.Encode(); err != nil {
		return nil, errors.Wrap(err, "encode content stream")
	}
	ref, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, errors.Wrap(err, "register content stream")
	}
	return ref, nil
}

func (d *pdfDocument) Write(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return errors.Wrap(err, "write context")
	}
	return nil
}
