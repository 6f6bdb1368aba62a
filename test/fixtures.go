package test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// FixtureGenerator 生成测试用的 PDF 文档
type FixtureGenerator struct {
	tempDir string
}

// NewFixtureGenerator 创建生成器，文件写入独立的临时目录
func NewFixtureGenerator() (*FixtureGenerator, error) {
	dir, err := os.MkdirTemp("", "annotate_test")
	if err != nil {
		return nil, err
	}
	return &FixtureGenerator{tempDir: dir}, nil
}

// Cleanup 清理临时文件
func (g *FixtureGenerator) Cleanup() {
	os.RemoveAll(g.tempDir)
}

// WriteFile 把数据写入临时目录并返回路径
func (g *FixtureGenerator) WriteFile(name string, data []byte) (string, error) {
	path := filepath.Join(g.tempDir, name)
	return path, os.WriteFile(path, data, 0644)
}

// Letter 单页 US Letter（612x792 pt），带一行文本
func (g *FixtureGenerator) Letter() ([]byte, error) {
	return g.Pages("Letter", 1)
}

// A4 单页 A4（约 595x842 pt）
func (g *FixtureGenerator) A4() ([]byte, error) {
	return g.Pages("A4", 1)
}

// Pages 生成 count 页指定纸张的文档，每页带页码文本
func (g *FixtureGenerator) Pages(size string, count int) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= count; i++ {
		pdf.AddPage()
		pdf.Text(72, 72, fmt.Sprintf("page %d", i))
		pdf.SetFillColor(230, 230, 230)
		pdf.Rect(72, 100, 200, 80, "F")
	}
	return output(pdf)
}

// WithSize 生成自定义尺寸的单页文档（pt）
func (g *FixtureGenerator) WithSize(width, height float64) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.AddPage()
	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NoPages 页面树为空的文档
func (g *FixtureGenerator) NoPages() []byte {
	return rawPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	)
}

// StatefulContent 单页 Letter，原有内容改变 CTM 和填充色且不恢复
func (g *FixtureGenerator) StatefulContent() []byte {
	content := "2 0 0 2 0 0 cm 1 0 0 rg 0 0 10 10 re f\n"
	return rawPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
	)
}

// PageWithAttrs 单页文档，attrs 为页面字典中的几何属性（MediaBox、CropBox、Rotate）
func (g *FixtureGenerator) PageWithAttrs(attrs string) []byte {
	content := "0 0 1 1 re f\n"
	return rawPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R %s /Contents 4 0 R /Resources << >> >>", attrs),
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
	)
}

// InheritedAttrs 单页文档，几何属性写在页面树节点上由页面继承
func (g *FixtureGenerator) InheritedAttrs(attrs string) []byte {
	content := "0 0 1 1 re f\n"
	return rawPDF(
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [3 0 R] /Count 1 %s >>", attrs),
		"<< /Type /Page /Parent 2 0 R /Contents 4 0 R /Resources << >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
	)
}

// Corrupted 不是 PDF 的数据
func (g *FixtureGenerator) Corrupted() []byte {
	return []byte("This is not a valid PDF file")
}

// HeaderOnly 只有 PDF 文件头，没有任何对象
func (g *FixtureGenerator) HeaderOnly() []byte {
	return []byte("%PDF-1.4\n%%EOF\n")
}

// rawPDF 按顺序编号对象（从 1 开始），生成偏移正确的 xref 表
func rawPDF(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
