package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
)

// ── 文档加载 ──────────────────────────────────────────────
//
// .txt 按 UTF-8 文本读取；.pdf 逐页按行提取文字层（不做 OCR），页与页之间以换行拼接。
// 同一行内相邻文字片段间距超过 wordGapRatio × 字号时补一个空格。
// ─────────────────────────────────────────────────────────────

const wordGapRatio = 0.25

// SourceDocument 一个待解析的源文档
type SourceDocument struct {
	Name string // 文件名（含扩展名），用于文档日期与来源标注
	Text string
}

// LoadDocument 从磁盘读取文档
func LoadDocument(path string) (SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceDocument{}, fmt.Errorf("读取文档失败: %w", err)
	}
	return LoadDocumentBytes(filepath.Base(path), data)
}

// LoadDocumentBytes 按扩展名解码内存中的文档内容
func LoadDocumentBytes(name string, data []byte) (SourceDocument, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return SourceDocument{Name: name, Text: string(data)}, nil
	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return SourceDocument{}, fmt.Errorf("解析 PDF %s 失败: %w", name, err)
		}
		return SourceDocument{Name: name, Text: text}, nil
	default:
		return SourceDocument{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedDocument, name)
	}
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("第 %d 页: %w", i, err)
		}
		// PDF 坐标原点在左下角，Y 越大越靠上
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Position > rows[b].Position })
		for _, row := range rows {
			sb.WriteString(joinRow(row.Content))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func joinRow(texts pdf.TextHorizontal) string {
	sort.Sort(texts)

	var sb strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 {
			gap := t.X - prevEnd
			if gap > t.FontSize*wordGapRatio && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return sb.String()
}
