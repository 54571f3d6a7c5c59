package util

import (
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const octetStream = "application/octet-stream"

// DetectContentType 客户端声明的类型缺失或为通用二进制时，按文件头识别
func DetectContentType(fh *multipart.FileHeader) string {
	declared := baseType(fh.Header.Get("Content-Type"))
	if declared != "" && declared != octetStream {
		return declared
	}

	f, err := fh.Open()
	if err != nil {
		return declared
	}
	defer func() { _ = f.Close() }()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return declared
	}
	return baseType(m.String())
}

func baseType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
