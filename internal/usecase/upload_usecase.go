package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const uploadURLPrefix = "/api/uploads/"

// 保存する画像形式と拡張子
var uploadTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var uploadIDPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|gif|webp)$`)

type UploadResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// UploadUsecase は画像アップロード
type UploadUsecase struct {
	storage  FileStorage
	maxBytes int64
}

func NewUploadUsecase(storage FileStorage, maxBytes int64) *UploadUsecase {
	return &UploadUsecase{storage: storage, maxBytes: maxBytes}
}

// 形式は申告ではなく先頭バイトで判定する
func (u *UploadUsecase) Save(ctx context.Context, body io.Reader, size int64) (UploadResult, error) {
	if size > u.maxBytes {
		return UploadResult{}, fileTooLarge(u.maxBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return UploadResult{}, Internal("upload.read", err)
	}
	head = head[:n]
	if n == 0 {
		return UploadResult{}, Invalid("file is required")
	}

	contentType := http.DetectContentType(head)
	ext, ok := uploadTypes[contentType]
	if !ok {
		return UploadResult{}, Unprocessable(CodeUnsupportedFile, "only jpeg, png, gif and webp images are allowed")
	}

	//サイズ申告が小さくても上限+1バイトで打ち切る
	rest := io.LimitReader(body, u.maxBytes-int64(n)+1)
	buf := bytes.NewBuffer(head)
	if _, err := io.Copy(buf, rest); err != nil {
		return UploadResult{}, Internal("upload.read", err)
	}
	if int64(buf.Len()) > u.maxBytes {
		return UploadResult{}, fileTooLarge(u.maxBytes)
	}

	id := uuid.NewString() + ext
	if err := u.storage.Save(ctx, id, contentType, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return UploadResult{}, Internal("upload.save", err)
	}
	return UploadResult{ID: id, URL: uploadURLPrefix + id}, nil
}

// 戻り値のReadCloserは呼び出し側で閉じる
func (u *UploadUsecase) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if !uploadIDPattern.MatchString(id) {
		return nil, "", NotFound()
	}
	rc, err := u.storage.Open(ctx, id)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", NotFound()
	}
	if err != nil {
		return nil, "", Internal("upload.open", err)
	}
	return rc, contentTypeOf(id), nil
}

func contentTypeOf(id string) string {
	ext := strings.ToLower(path.Ext(id))
	for ct, e := range uploadTypes {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

func fileTooLarge(max int64) error {
	return NewAppError(http.StatusRequestEntityTooLarge, CodeFileTooLarge,
		fmt.Sprintf("file must be at most %d MB", max/(1<<20)))
}
