package model

import "time"

// User はサービス利用ユーザーを表す。
// Passwordは受け取った値をそのまま保持する（ハッシュ化しない）。
type User struct {
	ID        int64
	Email     string
	Username  string
	Password  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccessToken はログイン成功時に返すトークン。
// 暗号学的な資格情報ではなく、ユーザー名から決まる固定文字列である。
type AccessToken struct {
	Token     string
	TokenType string
}

// TokenTypeBearer はAccessToken.TokenTypeの固定値。
const TokenTypeBearer = "bearer"

// placeholderTokenPrefix はプレースホルダートークンの接頭辞。
const placeholderTokenPrefix = "fake-jwt-token-for-"

// NewPlaceholderToken はユーザー名からプレースホルダートークンを生成する。
func NewPlaceholderToken(username string) AccessToken {
	return AccessToken{
		Token:     placeholderTokenPrefix + username,
		TokenType: TokenTypeBearer,
	}
}
