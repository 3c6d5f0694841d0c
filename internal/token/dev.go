package token

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/taskdeck/internal/model"
)

// DevTokenPrefix は開発用トークンの識別プレフィックス。
const DevTokenPrefix = "DEV."

// devTokenVersion は現行の開発用トークンのバージョン識別子。
const devTokenVersion = "v1"

const (
	devIDMarker    = ".id."
	devEmailMarker = ".email."
)

// ParseDevToken は開発用トークンを解析する。
//
// 形式: DEV.<version>.id.<userId>.email.<email>.<issuedAtMs>
//
// リテラルマーカー「.id.」「.email.」の位置と、末尾の「.」区切り数値
// （ミリ秒タイムスタンプ）で各セグメントを切り出す。emailにはドットを
// 含み得るため、emailは「.email.」から最後の「.」までとして扱う。
// マーカー欠落、順序逆転、userId/emailが空、末尾が数値でない場合は
// エラーを返す。このエンコードには完全性保護がない。
func ParseDevToken(s string) (*model.Identity, time.Time, error) {
	if !strings.HasPrefix(s, DevTokenPrefix) {
		return nil, time.Time{}, fmt.Errorf("not a dev token")
	}

	idIdx := strings.Index(s, devIDMarker)
	if idIdx < 0 {
		return nil, time.Time{}, fmt.Errorf("dev token is missing %q marker", devIDMarker)
	}

	emailIdx := strings.Index(s, devEmailMarker)
	if emailIdx < 0 {
		return nil, time.Time{}, fmt.Errorf("dev token is missing %q marker", devEmailMarker)
	}
	if emailIdx < idIdx {
		return nil, time.Time{}, fmt.Errorf("dev token markers are out of order")
	}

	userID := s[idIdx+len(devIDMarker) : emailIdx]
	if userID == "" {
		return nil, time.Time{}, fmt.Errorf("dev token has an empty user ID")
	}

	rest := s[emailIdx+len(devEmailMarker):]
	lastDot := strings.LastIndex(rest, ".")
	if lastDot < 0 {
		return nil, time.Time{}, fmt.Errorf("dev token is missing a timestamp segment")
	}

	email := rest[:lastDot]
	if email == "" {
		return nil, time.Time{}, fmt.Errorf("dev token has an empty email")
	}

	issuedAtMs, err := strconv.ParseInt(rest[lastDot+1:], 10, 64)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("dev token timestamp is not numeric: %w", err)
	}

	identity := &model.Identity{UserID: userID, Email: email}
	return identity, time.UnixMilli(issuedAtMs), nil
}

// FormatDevToken は開発用トークンを組み立てる。
// ローカル開発とテストでの利用を想定している。
func FormatDevToken(userID, email string, issuedAt time.Time) string {
	return fmt.Sprintf("%s%s.id.%s.email.%s.%d",
		DevTokenPrefix, devTokenVersion, userID, email, issuedAt.UnixMilli())
}
