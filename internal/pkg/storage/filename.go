package storage

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	maxBaseRunes = 50
	maxExtLen    = 10
)

// FilenamePrefix 各类附件的文件名前缀
func FilenamePrefix(c Category) string {
	switch c {
	case CategoryComment:
		return "comment"
	case CategoryArticle:
		return "article_att"
	default:
		return "attachment"
	}
}

// GenerateFilename 生成存储文件名 {prefix}_{base}_{millis}_{hex}{ext}
func GenerateFilename(c Category, original string, now time.Time) string {
	ext := SanitizeExt(filepath.Ext(original))
	base := SanitizeBase(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))

	var b [8]byte
	_, _ = rand.Read(b[:])

	return FilenamePrefix(c) + "_" + base + "_" +
		strconv.FormatInt(now.UnixMilli(), 10) + "_" + hex.EncodeToString(b[:]) + ext
}

// SanitizeBase 仅保留字母和数字，其余替换为下划线并截断
func SanitizeBase(base string) string {
	var sb strings.Builder
	n := 0
	for _, r := range base {
		if n == maxBaseRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
		n++
	}
	if sb.Len() == 0 {
		return "file"
	}
	return sb.String()
}

// SanitizeExt 扩展名只允许 ASCII 字母数字，非法时丢弃
func SanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if len(ext) < 2 || len(ext) > maxExtLen+1 || ext[0] != '.' {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
