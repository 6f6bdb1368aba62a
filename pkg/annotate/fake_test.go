package annotate

import (
	"bytes"
	"errors"
	"io"
)

// fakeDocument 记录追加内容的内存文档
type fakeDocument struct {
	pages    int
	geometry PageGeometry
	appended [][]byte
}

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) PageGeometry(pageNr int) (PageGeometry, error) {
	if pageNr < 1 || pageNr > d.pages {
		return PageGeometry{}, errors.New("page out of range")
	}
	return d.geometry, nil
}

func (d *fakeDocument) AppendPageContent(pageNr int, content []byte) error {
	d.appended = append(d.appended, append([]byte(nil), content...))
	return nil
}

func (d *fakeDocument) PageContent(pageNr int) ([][]byte, error) {
	if pageNr < 1 || pageNr > d.pages {
		return nil, errors.New("page out of range")
	}
	return d.appended, nil
}

func (d *fakeDocument) Write(w io.Writer) error {
	if _, err := io.WriteString(w, "%PDF-fake\n"); err != nil {
		return err
	}
	for _, c := range d.appended {
		if _, err := w.Write(c); err != nil {
			return err
		}
	}
	return nil
}

// fakeLoader 以 %PDF- 开头的数据生成 fakeDocument，其余返回解析错误
type fakeLoader struct {
	pages    int
	geometry PageGeometry
	loads    int
	last     *fakeDocument
}

func newFakeLoader(pages int, width, height float64) *fakeLoader {
	return &fakeLoader{pages: pages, geometry: BoxGeometry(width, height)}
}

func (l *fakeLoader) Load(data []byte) (Document, error) {
	l.loads++
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, errors.New("not a pdf")
	}
	l.last = &fakeDocument{pages: l.pages, geometry: l.geometry}
	return l.last, nil
}

var letterPDF = []byte("%PDF-1.4\n% fake letter\n")
