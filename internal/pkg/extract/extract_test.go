package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	ct, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`))
	require.NoError(t, err)
	w, err := zw.Create(docxBody)
	require.NoError(t, err)
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>ACME CORPORATION</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">MISSING </w:t></w:r><w:r><w:t>ITEMS:</w:t></w:r></w:p>
    <w:p><w:r><w:t>- Officer</w:t><w:tab/><w:t>compensation</w:t><w:br/><w:t>documentation</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDOCX(t *testing.T) {
	r := NewRegistry()
	text, err := r.Extract(context.Background(), DOCX, buildDOCX(t, sampleDocumentXML))
	require.NoError(t, err)
	assert.Equal(t, "ACME CORPORATION\nMISSING ITEMS:\n- Officer\tcompensation\ndocumentation", text)
}

func TestExtractDOCXMissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = NewRegistry().Extract(context.Background(), DOCX, buf.Bytes())
	assert.Error(t, err)
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 5435000))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "Net Income"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 1185000))
	_, err := f.NewSheet("Balance")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Balance", "A1", "Total Assets"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := NewRegistry().Extract(context.Background(), XLSX, buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "Sheet: Sheet1\nRevenue\t5435000\nNet Income\t1185000")
	assert.Contains(t, text, "Sheet: Balance\nTotal Assets")
}

func TestExtractCorruptInputs(t *testing.T) {
	r := NewRegistry()
	for _, ft := range []FileType{PDF, DOCX, XLSX} {
		_, err := r.Extract(context.Background(), ft, []byte("definitely not a real file"))
		assert.Error(t, err, "type %s", ft)
	}
}

func TestExtractUnsupportedAndEmpty(t *testing.T) {
	r := NewRegistry()
	text, err := r.Extract(context.Background(), Unsupported, []byte("binary"))
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = r.Extract(context.Background(), Text, nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestExtractTextNormalizes(t *testing.T) {
	text, err := NewRegistry().Extract(context.Background(), Text, []byte("line one   \r\n\r\nline two\t\n\xff"))
	require.NoError(t, err)
	assert.Equal(t, "line one\n\nline two", text)
}

func TestRegisterOverridesExtractor(t *testing.T) {
	r := NewRegistry()
	r.Register(Unsupported, ExtractorFunc(func(ctx context.Context, data []byte) (string, error) {
		return "custom", nil
	}))
	text, err := r.Extract(context.Background(), Unsupported, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "custom", text)
}

func TestDetectType(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		declared string
		data     []byte
		want     FileType
	}{
		{"declared wins", "notes.bin", "xlsx", nil, XLSX},
		{"declared with dot", "x", ".PDF", nil, PDF},
		{"extension", "client_responses.docx", "", nil, DOCX},
		{"markdown", "README.md", "", nil, Text},
		{"pdf magic", "upload", "", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"), PDF},
		{"plain text sniff", "upload", "", []byte("Total Revenue: $5,435,000\nNet Income: $1,185,000\n"), Text},
		{"unknown", "image.png", "", nil, Unsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectType(tc.fileName, tc.declared, tc.data))
		})
	}
}
