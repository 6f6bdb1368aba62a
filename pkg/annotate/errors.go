package annotate

import "errors"

var (
	// ErrUnsupportedFileType 输入不是 PDF
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrDocumentLoad 文档无法解析；具体原因见 *DocumentLoadError
	ErrDocumentLoad = errors.New("document load failed")
	// ErrNoPages 文档没有页面，无法保存
	ErrNoPages = errors.New("document has no pages")
	// ErrNoActiveDocument 尚未加载文档
	ErrNoActiveDocument = errors.New("no active document")
	// ErrUnknownCommand 无法识别的 UI 命令
	ErrUnknownCommand = errors.New("unknown command")
)

// DocumentLoadError 文档解析失败
type DocumentLoadError struct {
	Err error
}

func (e *DocumentLoadError) Error() string {
	if e.Err == nil {
		return ErrDocumentLoad.Error()
	}
	return ErrDocumentLoad.Error() + ": " + e.Err.Error()
}

func (e *DocumentLoadError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrDocumentLoad) 成立
func (e *DocumentLoadError) Is(target error) bool {
	return target == ErrDocumentLoad
}

// ErrorKind 返回错误类别名，供传输层上报
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported_file_type"
	case errors.Is(err, ErrDocumentLoad):
		return "document_load"
	case errors.Is(err, ErrNoPages):
		return "no_pages"
	case errors.Is(err, ErrNoActiveDocument):
		return "no_active_document"
	case errors.Is(err, ErrUnknownCommand):
		return "bad_request"
	}
	return "internal"
}
