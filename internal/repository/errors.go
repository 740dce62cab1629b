package repository

import "errors"

// 見つからないを統一
var ErrNotFound = errors.New("not found")

// 一意制約違反（ユーザー名・レビューの重複など）
var ErrDuplicate = errors.New("duplicate")
